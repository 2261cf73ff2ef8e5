package types

import (
	"fmt"
	"math"

	"github.com/Berylsoft/Zeon/pkg/wire"
)

// MaxDepth bounds how deeply values and types may nest. Encode and Decode
// enforce the same bound so every encodable value can be decoded.
const MaxDepth = 256

// Encode returns the wire form of v
func Encode(v Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// AppendValue appends the wire form of v to b
func AppendValue(b []byte, v Value) ([]byte, error) {
	e := encoder{buf: b}
	if err := e.value(v, 0); err != nil {
		return b, err
	}
	return e.buf, nil
}

// EncodeType returns the wire form of t
func EncodeType(t Type) ([]byte, error) {
	return AppendType(nil, t)
}

// AppendType appends the wire form of t to b
func AppendType(b []byte, t Type) ([]byte, error) {
	e := encoder{buf: b}
	if err := e.typ(t, 0); err != nil {
		return b, err
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) tag(high HighTag, low byte) {
	e.buf = append(e.buf, wire.Pack(byte(high), low))
}

func (e *encoder) inline(low InlineTag) {
	e.tag(HighInline, byte(low))
}

// length writes a tag whose low nibble carries n, spilling into 1, 2, 4 or 8
// extra bytes when n does not fit
func (e *encoder) length(high HighTag, n uint64) {
	switch {
	case n <= uint64(maxInline):
		e.tag(high, byte(n))
	case n <= math.MaxUint8:
		e.tag(high, ext8)
		e.buf = append(e.buf, byte(n))
	case n <= math.MaxUint16:
		e.tag(high, ext16)
		e.buf = wire.AppendUint16(e.buf, uint16(n))
	case n <= math.MaxUint32:
		e.tag(high, ext32)
		e.buf = wire.AppendUint32(e.buf, uint32(n))
	default:
		e.tag(high, ext64)
		e.buf = wire.AppendUint64(e.buf, n)
	}
}

func (e *encoder) ptr(p TypePtr) error {
	var err error
	e.buf, err = AppendTypePtr(e.buf, p)
	if err != nil {
		return &EncodeError{Path: p.String(), Err: err}
	}
	return nil
}

func (e *encoder) typ(t Type, depth int) error {
	if depth > MaxDepth {
		return &EncodeError{Path: "type", Err: ErrTooDeep}
	}
	e.buf = append(e.buf, byte(t.kind))
	switch t.kind {
	case KindOption, KindList:
		return e.typ(t.Elem(), depth+1)
	case KindMap:
		if err := e.typ(t.Elem(), depth+1); err != nil {
			return err
		}
		return e.typ(t.Val(), depth+1)
	case KindTuple:
		if len(t.elems) > math.MaxUint8 {
			return &EncodeError{Path: t.String(), Err: ErrTupleArity}
		}
		e.buf = append(e.buf, byte(len(t.elems)))
		for _, el := range t.elems {
			if err := e.typ(el, depth+1); err != nil {
				return err
			}
		}
	case KindAlias, KindEnum, KindStruct, KindCEnum:
		return e.ptr(t.ptr)
	}
	return nil
}

func (e *encoder) value(v Value, depth int) error {
	if depth > MaxDepth {
		return &EncodeError{Path: "value", Err: ErrTooDeep}
	}
	switch v := v.(type) {
	case nil:
		return &EncodeError{Err: ErrNilValue}
	case Unit:
		e.inline(InlineUnit)
	case Bool:
		if v {
			e.inline(InlineTrue)
		} else {
			e.inline(InlineFalse)
		}
	case Option:
		if v.Value == nil {
			e.inline(InlineNone)
			return e.typ(v.Elem, depth+1)
		}
		e.inline(InlineSome)
		if err := e.typ(v.Elem, depth+1); err != nil {
			return err
		}
		return e.value(v.Value, depth+1)
	case Alias:
		e.inline(InlineAlias)
		if err := e.ptr(v.Ptr); err != nil {
			return err
		}
		return e.value(v.Value, depth+1)
	case Type:
		e.inline(InlineType)
		return e.typ(v, depth+1)
	case TypePtr:
		e.inline(InlineTypePtr)
		return e.ptr(v)
	case ObjectPtr:
		e.inline(InlineObjectPtr)
		e.buf = v.Append(e.buf)
	case Timestamp:
		e.inline(InlineTimestamp)
		e.buf = v.Append(e.buf)
	case Uint8:
		e.inline(InlineUint8)
		e.buf = append(e.buf, byte(v))
	case Uint16:
		e.inline(InlineUint16)
		e.buf = wire.AppendUint16(e.buf, uint16(v))
	case Uint32:
		e.inline(InlineUint32)
		e.buf = wire.AppendUint32(e.buf, uint32(v))
	case Int:
		e.length(HighInt, wire.ZigZag(int64(v)))
	case Uint:
		e.length(HighUint, uint64(v))
	case Float:
		// the low nibble is the number of stored bytes, at most 8
		start := len(e.buf)
		e.buf = append(e.buf, 0)
		var n int
		e.buf, n = wire.AppendFloatBits(e.buf, math.Float64bits(float64(v)))
		e.buf[start] = wire.Pack(byte(HighFloat), byte(n))
	case String:
		e.length(HighString, uint64(len(v)))
		e.buf = append(e.buf, string(v)...)
	case Bytes:
		e.length(HighBytes, uint64(len(v)))
		e.buf = append(e.buf, v...)
	case List:
		e.length(HighList, uint64(len(v.Items)))
		if err := e.typ(v.Elem, depth+1); err != nil {
			return err
		}
		return e.values(v.Items, depth)
	case Map:
		e.length(HighMap, uint64(len(v.Entries)))
		if err := e.typ(v.Key, depth+1); err != nil {
			return err
		}
		if err := e.typ(v.Val, depth+1); err != nil {
			return err
		}
		for _, en := range v.Entries {
			if err := e.value(en.Key, depth+1); err != nil {
				return err
			}
			if err := e.value(en.Value, depth+1); err != nil {
				return err
			}
		}
	case Tuple:
		e.length(HighTuple, uint64(len(v)))
		return e.values(v, depth)
	case Enum:
		e.length(HighEnum, v.Variant)
		if err := e.ptr(v.Ptr); err != nil {
			return err
		}
		return e.value(v.Value, depth+1)
	case CEnum:
		e.length(HighCEnum, v.Variant)
		return e.ptr(v.Ptr)
	case Struct:
		e.length(HighStruct, uint64(len(v.Fields)))
		if err := e.ptr(v.Ptr); err != nil {
			return err
		}
		return e.values(v.Fields, depth)
	default:
		return &EncodeError{Err: fmt.Errorf("unsupported value %T", v)}
	}
	return nil
}

func (e *encoder) values(vs []Value, depth int) error {
	for _, v := range vs {
		if err := e.value(v, depth+1); err != nil {
			return err
		}
	}
	return nil
}
