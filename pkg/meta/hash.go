package meta

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashSize is the length of a content hash
const HashSize = 32

// Hash is the SHAKE-256 digest of a commit's encoded content, truncated to 32
// bytes
type Hash [HashSize]byte

// Sum hashes data
func Sum(data []byte) Hash {
	var h Hash
	sha3.ShakeSum256(h[:], data)
	return h
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses the hex form produced by String
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse hash: %w", err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("parse hash: want %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}
