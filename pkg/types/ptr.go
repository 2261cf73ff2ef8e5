package types

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/Berylsoft/Zeon/pkg/wire"
)

const (
	// HashPtrMarker is the first byte of an encoded hash pointer
	HashPtrMarker byte = 0xff
	// HashPtrLen is the number of hash bytes a hash pointer keeps
	HashPtrLen = 7
)

// TypePtr names a user-defined type. It is either a 16-bit standard pointer
// from the registry or a 7-byte fragment of the hash of the type's path. The
// zero value is the standard pointer 0.
type TypePtr struct {
	isHash bool
	std    uint16
	hash   [HashPtrLen]byte
}

// StdPtr returns the standard pointer n. Codes whose high byte is 0xFF are
// reserved for the hash form and rejected.
func StdPtr(n uint16) (TypePtr, error) {
	if byte(n>>8) == HashPtrMarker {
		return TypePtr{}, fmt.Errorf("%w: standard pointer %#04x uses the reserved high byte", ErrInvalidTypePtr, n)
	}
	return TypePtr{std: n}, nil
}

// MustStdPtr is like StdPtr but panics on a reserved code. It is meant for
// package-level registry constants.
func MustStdPtr(n uint16) TypePtr {
	p, err := StdPtr(n)
	if err != nil {
		panic(err)
	}
	return p
}

// HashPtr returns a hash pointer holding h
func HashPtr(h [HashPtrLen]byte) TypePtr {
	return TypePtr{isHash: true, hash: h}
}

// PtrFromPath derives the hash pointer of a canonical type path
func PtrFromPath(path string) TypePtr {
	var h [HashPtrLen]byte
	sha3.ShakeSum256(h[:], []byte(path))
	return HashPtr(h)
}

// IsHash reports whether p is a hash pointer
func (p TypePtr) IsHash() bool { return p.isHash }

// Std returns the standard code and true, or false for a hash pointer
func (p TypePtr) Std() (uint16, bool) {
	return p.std, !p.isHash
}

// Hash returns the hash bytes and true, or false for a standard pointer
func (p TypePtr) Hash() ([HashPtrLen]byte, bool) {
	return p.hash, p.isHash
}

// EncodedLen returns the number of bytes p occupies on the wire
func (p TypePtr) EncodedLen() int {
	if p.isHash {
		return 1 + HashPtrLen
	}
	return 2
}

func (p TypePtr) String() string {
	if p.isHash {
		return "hash:" + hex.EncodeToString(p.hash[:])
	}
	return fmt.Sprintf("std:%04x", p.std)
}

// ParseTypePtr parses the "std:xxxx" and "hash:<14 hex digits>" forms
// produced by String
func ParseTypePtr(s string) (TypePtr, error) {
	switch {
	case strings.HasPrefix(s, "std:"):
		n, err := strconv.ParseUint(s[len("std:"):], 16, 16)
		if err != nil {
			return TypePtr{}, fmt.Errorf("%w: %q", ErrInvalidTypePtr, s)
		}
		return StdPtr(uint16(n))
	case strings.HasPrefix(s, "hash:"):
		raw, err := hex.DecodeString(s[len("hash:"):])
		if err != nil || len(raw) != HashPtrLen {
			return TypePtr{}, fmt.Errorf("%w: %q", ErrInvalidTypePtr, s)
		}
		var h [HashPtrLen]byte
		copy(h[:], raw)
		return HashPtr(h), nil
	}
	return TypePtr{}, fmt.Errorf("%w: %q", ErrInvalidTypePtr, s)
}

// AppendTypePtr appends the wire form of p
func AppendTypePtr(b []byte, p TypePtr) ([]byte, error) {
	if p.isHash {
		b = append(b, HashPtrMarker)
		return append(b, p.hash[:]...), nil
	}
	if byte(p.std>>8) == HashPtrMarker {
		return b, ErrInvalidTypePtr
	}
	return wire.AppendUint16(b, p.std), nil
}

// readTypePtr decodes one TypePtr. The first byte alone decides the form.
func readTypePtr(c *wire.Cursor) (TypePtr, error) {
	first, err := c.Byte()
	if err != nil {
		return TypePtr{}, err
	}
	if first == HashPtrMarker {
		p, err := c.Next(HashPtrLen)
		if err != nil {
			return TypePtr{}, err
		}
		var h [HashPtrLen]byte
		copy(h[:], p)
		return HashPtr(h), nil
	}
	second, err := c.Byte()
	if err != nil {
		return TypePtr{}, err
	}
	return TypePtr{std: uint16(first)<<8 | uint16(second)}, nil
}

// DecodeTypePtr decodes a TypePtr that must occupy all of data
func DecodeTypePtr(data []byte) (TypePtr, error) {
	c := wire.NewCursor(data)
	p, err := readTypePtr(c)
	if err != nil {
		return TypePtr{}, newDecodeError(StageTypePtr, c.Pos(), err)
	}
	if c.Len() != 0 {
		return TypePtr{}, newDecodeError(StageTrailing, c.Pos(), ErrTrailingBytes)
	}
	return p, nil
}
