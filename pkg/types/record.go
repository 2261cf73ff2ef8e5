package types

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Berylsoft/Zeon/pkg/wire"
)

// EpochOffset is the distance in seconds between the Unix epoch and the epoch
// Timestamp counts from (2001-01-01T00:00:00Z)
const EpochOffset int64 = 978307200

// Fixed encoded sizes
const (
	TimestampSize = 8 + 4
	ObjectPtrSize = 2 + 8
)

// Timestamp is a point in time as seconds and nanoseconds since EpochOffset
type Timestamp struct {
	Secs  int64
	Nanos uint32
}

// Now returns the current time as a Timestamp
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts t to a Timestamp
func FromTime(t time.Time) Timestamp {
	return Timestamp{Secs: t.Unix() - EpochOffset, Nanos: uint32(t.Nanosecond())}
}

// FromUnixMilli converts milliseconds since the Unix epoch to a Timestamp
func FromUnixMilli(ms int64) Timestamp {
	secs, rem := ms/1000, ms%1000
	if rem < 0 {
		secs--
		rem += 1000
	}
	return Timestamp{Secs: secs - EpochOffset, Nanos: uint32(rem) * 1_000_000}
}

// UnixMilli returns ts as milliseconds since the Unix epoch
func (ts Timestamp) UnixMilli() int64 {
	return (ts.Secs+EpochOffset)*1000 + int64(ts.Nanos/1_000_000)
}

// Time converts ts to a UTC time.Time
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Secs+EpochOffset, int64(ts.Nanos)).UTC()
}

// Compare orders timestamps by seconds, then nanoseconds
func (ts Timestamp) Compare(o Timestamp) int {
	if c := cmp.Compare(ts.Secs, o.Secs); c != 0 {
		return c
	}
	return cmp.Compare(ts.Nanos, o.Nanos)
}

// Append appends the 12-byte big-endian form of ts
func (ts Timestamp) Append(b []byte) []byte {
	b = wire.AppendUint64(b, uint64(ts.Secs))
	return wire.AppendUint32(b, ts.Nanos)
}

// Bytes returns the 12-byte big-endian form of ts
func (ts Timestamp) Bytes() []byte {
	return ts.Append(make([]byte, 0, TimestampSize))
}

func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339Nano)
}

// ParseTimestamp parses the RFC 3339 form produced by String
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return FromTime(t), nil
}

// ReadTimestamp reads a Timestamp from c
func ReadTimestamp(c *wire.Cursor) (Timestamp, error) {
	secs, err := c.Uint64()
	if err != nil {
		return Timestamp{}, err
	}
	nanos, err := c.Uint32()
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Secs: int64(secs), Nanos: nanos}, nil
}

// ObjectPtr identifies the object a commit touches: an object type and an id
// within that type
type ObjectPtr struct {
	Type uint16
	ID   uint64
}

// Compare orders object pointers by type, then id
func (o ObjectPtr) Compare(p ObjectPtr) int {
	if c := cmp.Compare(o.Type, p.Type); c != 0 {
		return c
	}
	return cmp.Compare(o.ID, p.ID)
}

// Append appends the 10-byte big-endian form of o
func (o ObjectPtr) Append(b []byte) []byte {
	b = wire.AppendUint16(b, o.Type)
	return wire.AppendUint64(b, o.ID)
}

// Bytes returns the 10-byte big-endian form of o
func (o ObjectPtr) Bytes() []byte {
	return o.Append(make([]byte, 0, ObjectPtrSize))
}

func (o ObjectPtr) String() string {
	return fmt.Sprintf("%04x:%016x", o.Type, o.ID)
}

// ParseObjectPtr parses the "type:id" form produced by String. Both parts
// are hex and may omit leading zeros.
func ParseObjectPtr(s string) (ObjectPtr, error) {
	ot, id, ok := strings.Cut(s, ":")
	if !ok {
		return ObjectPtr{}, fmt.Errorf("object ptr %q: want type:id", s)
	}
	t, err := strconv.ParseUint(ot, 16, 16)
	if err != nil {
		return ObjectPtr{}, fmt.Errorf("object ptr %q: type: %w", s, err)
	}
	n, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return ObjectPtr{}, fmt.Errorf("object ptr %q: id: %w", s, err)
	}
	return ObjectPtr{Type: uint16(t), ID: n}, nil
}

// ReadObjectPtr reads an ObjectPtr from c
func ReadObjectPtr(c *wire.Cursor) (ObjectPtr, error) {
	ot, err := c.Uint16()
	if err != nil {
		return ObjectPtr{}, err
	}
	id, err := c.Uint64()
	if err != nil {
		return ObjectPtr{}, err
	}
	return ObjectPtr{Type: ot, ID: id}, nil
}
