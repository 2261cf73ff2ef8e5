package wire

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when fewer bytes remain than a read requires
var ErrShortBuffer = errors.New("wire: short buffer")

// Cursor reads big-endian values from a byte slice without ever indexing past
// its end. Every read either succeeds completely or returns ErrShortBuffer and
// leaves the position unchanged.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the number of bytes consumed so far
func (c *Cursor) Pos() int { return c.pos }

// Len returns the number of unread bytes
func (c *Cursor) Len() int { return len(c.buf) - c.pos }

// Byte reads one byte
func (c *Cursor) Byte() (byte, error) {
	if c.Len() < 1 {
		return 0, ErrShortBuffer
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// Next returns the next n bytes. The returned slice aliases the underlying
// buffer.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || c.Len() < n {
		return nil, ErrShortBuffer
	}
	p := c.buf[c.pos : c.pos+n]
	c.pos += n
	return p, nil
}

// Uint16 reads a big-endian uint16
func (c *Cursor) Uint16() (uint16, error) {
	p, err := c.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

// Uint32 reads a big-endian uint32
func (c *Cursor) Uint32() (uint32, error) {
	p, err := c.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

// Uint64 reads a big-endian uint64
func (c *Cursor) Uint64() (uint64, error) {
	p, err := c.Next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}
