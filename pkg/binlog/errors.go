package binlog

import (
	"errors"
	"fmt"

	"github.com/Berylsoft/Zeon/pkg/meta"
)

var (
	ErrIdent           = errors.New("binlog: bad magic number")
	ErrHashMismatch    = errors.New("binlog: content hash mismatch")
	ErrPtrMismatch     = errors.New("binlog: commit ptr differs from index")
	ErrContentTooLarge = errors.New("binlog: content length exceeds limit")
	ErrDuplicate       = errors.New("binlog: duplicate commit ptr")
	ErrNotFound        = errors.New("binlog: commit not found")
	ErrWriterFailed    = errors.New("binlog: writer failed")
)

// IdentError reports a file that does not start with the expected magic
type IdentError struct {
	Stream Stream
	Got    uint32
	Want   uint32
}

func (e *IdentError) Error() string {
	return fmt.Sprintf("%v: %s file has %#08x, want %#08x", ErrIdent, e.Stream, e.Got, e.Want)
}

func (e *IdentError) Unwrap() error { return ErrIdent }

// HashError reports content whose hash differs from its index record
type HashError struct {
	Ptr  meta.CommitPtr
	Want meta.Hash
	Got  meta.Hash
}

func (e *HashError) Error() string {
	return fmt.Sprintf("%v: commit %s: index has %s, content hashes to %s", ErrHashMismatch, e.Ptr, e.Want, e.Got)
}

func (e *HashError) Unwrap() error { return ErrHashMismatch }

// PtrError reports content that decodes to a commit with a different key than
// its index record
type PtrError struct {
	Index   meta.CommitPtr
	Content meta.CommitPtr
}

func (e *PtrError) Error() string {
	return fmt.Sprintf("%v: index %s, content %s", ErrPtrMismatch, e.Index, e.Content)
}

func (e *PtrError) Unwrap() error { return ErrPtrMismatch }

// IOError wraps a failure of one of the underlying streams
type IOError struct {
	Stream Stream
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("binlog: %s io: %v", e.Stream, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
