package binlog

import (
	"fmt"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"

	"github.com/Berylsoft/Zeon/pkg/meta"
)

// HashCID wraps a content hash as a CIDv1 with the raw codec and a SHAKE-256
// multihash
func HashCID(h meta.Hash) (gocid.Cid, error) {
	mh, err := multihash.Encode(h[:], multihash.SHAKE_256)
	if err != nil {
		return gocid.Undef, fmt.Errorf("multihash: %w", err)
	}
	return gocid.NewCidV1(gocid.Raw, mh), nil
}

// FormatHash renders a content hash as a base32 CID string
func FormatHash(h meta.Hash) (string, error) {
	c, err := HashCID(h)
	if err != nil {
		return "", err
	}
	return multibase.Encode(multibase.Base32, c.Bytes())
}

// ParseHash accepts either the hex form of a content hash or a CID produced
// by FormatHash
func ParseHash(s string) (meta.Hash, error) {
	if len(s) == 2*meta.HashSize {
		if h, err := meta.ParseHash(s); err == nil {
			return h, nil
		}
	}
	c, err := gocid.Decode(s)
	if err != nil {
		return meta.Hash{}, fmt.Errorf("parse hash %q: %w", s, err)
	}
	dm, err := multihash.Decode(c.Hash())
	if err != nil {
		return meta.Hash{}, fmt.Errorf("parse hash %q: %w", s, err)
	}
	if dm.Code != multihash.SHAKE_256 || len(dm.Digest) != meta.HashSize {
		return meta.Hash{}, fmt.Errorf("parse hash %q: not a %d-byte shake-256 digest", s, meta.HashSize)
	}
	var h meta.Hash
	copy(h[:], dm.Digest)
	return h, nil
}
