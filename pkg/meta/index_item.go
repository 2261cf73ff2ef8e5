package meta

import (
	"fmt"

	"github.com/Berylsoft/Zeon/pkg/wire"
)

// CommitIndexItemSize is the fixed encoded size of a CommitIndexItem
const CommitIndexItemSize = CommitPtrSize + 8 + HashSize

// CommitIndexItem is one index record: the commit key, the length of its
// encoded content and the hash of that content
type CommitIndexItem struct {
	Ptr  CommitPtr
	Len  uint64
	Hash Hash
}

// Append appends the 64-byte form of it
func (it CommitIndexItem) Append(b []byte) []byte {
	b = it.Ptr.Append(b)
	b = wire.AppendUint64(b, it.Len)
	return append(b, it.Hash[:]...)
}

// Bytes returns the 64-byte form of it
func (it CommitIndexItem) Bytes() []byte {
	return it.Append(make([]byte, 0, CommitIndexItemSize))
}

// ParseCommitIndexItem decodes an index record. data must be exactly
// CommitIndexItemSize bytes.
func ParseCommitIndexItem(data []byte) (CommitIndexItem, error) {
	if len(data) != CommitIndexItemSize {
		return CommitIndexItem{}, fmt.Errorf("index item: want %d bytes, got %d", CommitIndexItemSize, len(data))
	}
	c := wire.NewCursor(data)
	ptr, err := ReadCommitPtr(c)
	if err != nil {
		return CommitIndexItem{}, fmt.Errorf("index item ptr: %w", err)
	}
	n, err := c.Uint64()
	if err != nil {
		return CommitIndexItem{}, fmt.Errorf("index item len: %w", err)
	}
	h, err := c.Next(HashSize)
	if err != nil {
		return CommitIndexItem{}, fmt.Errorf("index item hash: %w", err)
	}
	it := CommitIndexItem{Ptr: ptr, Len: n}
	copy(it.Hash[:], h)
	return it, nil
}
