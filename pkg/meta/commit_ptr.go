package meta

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/Berylsoft/Zeon/pkg/std"
	"github.com/Berylsoft/Zeon/pkg/types"
	"github.com/Berylsoft/Zeon/pkg/wire"
)

// CommitPtrSize is the fixed encoded size of a CommitPtr
const CommitPtrSize = types.TimestampSize + types.ObjectPtrSize + 2

// CommitPtr is the key of a commit: when it was made, by which operator, and
// a sequence number separating commits that share both
type CommitPtr struct {
	TS  types.Timestamp
	Opr types.ObjectPtr
	Seq uint16
}

// Compare orders commit pointers by timestamp, operator, then sequence
func (p CommitPtr) Compare(o CommitPtr) int {
	if c := p.TS.Compare(o.TS); c != 0 {
		return c
	}
	if c := p.Opr.Compare(o.Opr); c != 0 {
		return c
	}
	return cmp.Compare(p.Seq, o.Seq)
}

// Append appends the 24-byte form of p
func (p CommitPtr) Append(b []byte) []byte {
	b = p.TS.Append(b)
	b = p.Opr.Append(b)
	return wire.AppendUint16(b, p.Seq)
}

// Bytes returns the 24-byte form of p
func (p CommitPtr) Bytes() []byte {
	return p.Append(make([]byte, 0, CommitPtrSize))
}

func (p CommitPtr) String() string {
	return fmt.Sprintf("%s/%s/%d", p.TS, p.Opr, p.Seq)
}

// ParseCommitPtr parses the "ts/opr/seq" form produced by String
func ParseCommitPtr(s string) (CommitPtr, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return CommitPtr{}, fmt.Errorf("commit ptr %q: want ts/opr/seq", s)
	}
	ts, err := types.ParseTimestamp(parts[0])
	if err != nil {
		return CommitPtr{}, fmt.Errorf("commit ptr: %w", err)
	}
	opr, err := types.ParseObjectPtr(parts[1])
	if err != nil {
		return CommitPtr{}, fmt.Errorf("commit ptr: %w", err)
	}
	seq, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return CommitPtr{}, fmt.Errorf("commit ptr %q: seq: %w", s, err)
	}
	return CommitPtr{TS: ts, Opr: opr, Seq: uint16(seq)}, nil
}

// ReadCommitPtr reads a CommitPtr from c
func ReadCommitPtr(c *wire.Cursor) (CommitPtr, error) {
	ts, err := types.ReadTimestamp(c)
	if err != nil {
		return CommitPtr{}, err
	}
	opr, err := types.ReadObjectPtr(c)
	if err != nil {
		return CommitPtr{}, err
	}
	seq, err := c.Uint16()
	if err != nil {
		return CommitPtr{}, err
	}
	return CommitPtr{TS: ts, Opr: opr, Seq: seq}, nil
}

// Serialize returns p as a std:meta:commit-ptr record
func (p CommitPtr) Serialize() types.Value {
	return types.Struct{
		Ptr:    std.CommitPtr,
		Fields: []types.Value{p.TS, p.Opr, types.Uint16(p.Seq)},
	}
}

// Deserialize restores p from a std:meta:commit-ptr record
func (p *CommitPtr) Deserialize(v types.Value) error {
	fields, err := types.ExpectStruct(v, std.CommitPtr, 3)
	if err != nil {
		return fmt.Errorf("commit ptr: %w", err)
	}
	ts, err := types.Expect[types.Timestamp](fields[0])
	if err != nil {
		return fmt.Errorf("commit ptr ts: %w", err)
	}
	opr, err := types.Expect[types.ObjectPtr](fields[1])
	if err != nil {
		return fmt.Errorf("commit ptr opr: %w", err)
	}
	seq, err := types.Expect[types.Uint16](fields[2])
	if err != nil {
		return fmt.Errorf("commit ptr seq: %w", err)
	}
	*p = CommitPtr{TS: ts, Opr: opr, Seq: uint16(seq)}
	return nil
}
