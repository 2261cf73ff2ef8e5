package meta

import (
	"fmt"

	"github.com/Berylsoft/Zeon/pkg/std"
	"github.com/Berylsoft/Zeon/pkg/types"
)

// RevEntry pairs a revision with the attribute it changes
type RevEntry struct {
	Ptr RevPtr
	Rev Rev
}

// Commit is the unit appended to the log
type Commit struct {
	Ptr  CommitPtr
	Revs []RevEntry
}

var (
	revPtrType = types.StructOf(std.RevPtr)
	revType    = types.EnumOf(std.Rev)
)

// Serialize returns c as a std:meta:commit record
func (c Commit) Serialize() types.Value {
	revs := types.Map{Key: revPtrType, Val: revType}
	if len(c.Revs) > 0 {
		revs.Entries = make([]types.Entry, len(c.Revs))
		for i, r := range c.Revs {
			revs.Entries[i] = types.Entry{Key: r.Ptr.Serialize(), Value: r.Rev.Serialize()}
		}
	}
	return types.Struct{
		Ptr:    std.Commit,
		Fields: []types.Value{c.Ptr.Serialize(), revs},
	}
}

// Deserialize restores c from a std:meta:commit record
func (c *Commit) Deserialize(v types.Value) error {
	fields, err := types.ExpectStruct(v, std.Commit, 2)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	var ptr CommitPtr
	if err := ptr.Deserialize(fields[0]); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	revs, err := types.Expect[types.Map](fields[1])
	if err != nil {
		return fmt.Errorf("commit revs: %w", err)
	}

	out := Commit{Ptr: ptr}
	if len(revs.Entries) > 0 {
		out.Revs = make([]RevEntry, len(revs.Entries))
	}
	for i, en := range revs.Entries {
		if err := out.Revs[i].Ptr.Deserialize(en.Key); err != nil {
			return fmt.Errorf("commit rev %d: %w", i, err)
		}
		if err := out.Revs[i].Rev.Deserialize(en.Value); err != nil {
			return fmt.Errorf("commit rev %d: %w", i, err)
		}
	}
	*c = out
	return nil
}

// Encode returns the wire form of c
func (c Commit) Encode() ([]byte, error) {
	return types.Encode(c.Serialize())
}

// DecodeCommit parses a commit from its wire form
func DecodeCommit(data []byte) (Commit, error) {
	v, err := types.Decode(data)
	if err != nil {
		return Commit{}, err
	}
	var c Commit
	if err := c.Deserialize(v); err != nil {
		return Commit{}, err
	}
	return c, nil
}
