package types

import (
	"errors"
	"fmt"

	"github.com/Berylsoft/Zeon/pkg/wire"
)

var (
	ErrUnknownTag     = errors.New("unknown type tag")
	ErrUnknownHighTag = errors.New("unknown high tag")
	ErrUnknownLowTag  = errors.New("unknown low tag")
	ErrInvalidUTF8    = errors.New("invalid utf-8 in string")
	ErrFloatLength    = errors.New("float payload longer than 8 bytes")
	ErrShortBuffer    = wire.ErrShortBuffer
	ErrTrailingBytes  = errors.New("trailing bytes after value")
	ErrTooDeep        = errors.New("value nested too deeply")
	ErrInvalidTypePtr = errors.New("invalid type pointer")
	ErrNilValue       = errors.New("nil value")
	ErrTupleArity     = errors.New("tuple type has more than 255 elements")
	ErrSchemaMismatch = errors.New("value does not match schema")
)

// Stage names the part of the format a decoder was reading when it failed
type Stage string

const (
	StageTag      Stage = "type tag"
	StageHighTag  Stage = "high tag"
	StageLowTag   Stage = "low tag"
	StageLength   Stage = "length"
	StagePayload  Stage = "payload"
	StageString   Stage = "string"
	StageFloat    Stage = "float"
	StageTypePtr  Stage = "type pointer"
	StageTrailing Stage = "trailer"
	StageDepth    Stage = "depth"
)

// DecodeError reports where and why decoding stopped
type DecodeError struct {
	Stage  Stage
	Offset int
	Err    error
}

func newDecodeError(stage Stage, offset int, err error) *DecodeError {
	return &DecodeError{Stage: stage, Offset: offset, Err: err}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v", e.Stage, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a value that has no wire form
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("encode: %v", e.Err)
	}
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// SchemaError reports a Value whose shape differs from what a schema expects
type SchemaError struct {
	Want string
	Got  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: want %s, got %s", ErrSchemaMismatch, e.Want, e.Got)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }
