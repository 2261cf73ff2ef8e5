package types

import (
	"bytes"
	"math"
	"unicode/utf8"

	"github.com/Berylsoft/Zeon/pkg/wire"
)

// Decode parses one Value that must occupy all of data
func Decode(data []byte) (Value, error) {
	d := decoder{c: wire.NewCursor(data)}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.c.Len() != 0 {
		return nil, d.fail(StageTrailing, ErrTrailingBytes)
	}
	return v, nil
}

// DecodeType parses one Type that must occupy all of data
func DecodeType(data []byte) (Type, error) {
	d := decoder{c: wire.NewCursor(data)}
	t, err := d.typ(0)
	if err != nil {
		return Type{}, err
	}
	if d.c.Len() != 0 {
		return Type{}, d.fail(StageTrailing, ErrTrailingBytes)
	}
	return t, nil
}

type decoder struct {
	c *wire.Cursor
}

func (d *decoder) fail(stage Stage, err error) error {
	return newDecodeError(stage, d.c.Pos(), err)
}

// failAt reports an error about the byte just consumed
func (d *decoder) failAt(stage Stage, err error) error {
	return newDecodeError(stage, d.c.Pos()-1, err)
}

// length reads the rest of a number whose low nibble has already been read
func (d *decoder) length(low byte) (uint64, error) {
	switch low {
	case ext8:
		b, err := d.c.Byte()
		if err != nil {
			return 0, d.fail(StageLength, err)
		}
		return uint64(b), nil
	case ext16:
		n, err := d.c.Uint16()
		if err != nil {
			return 0, d.fail(StageLength, err)
		}
		return uint64(n), nil
	case ext32:
		n, err := d.c.Uint32()
		if err != nil {
			return 0, d.fail(StageLength, err)
		}
		return uint64(n), nil
	case ext64:
		n, err := d.c.Uint64()
		if err != nil {
			return 0, d.fail(StageLength, err)
		}
		return n, nil
	}
	return uint64(low), nil
}

// count reads a length and rejects it when the remaining input cannot hold
// that many items of at least minSize bytes each
func (d *decoder) count(low byte, minSize int) (int, error) {
	n, err := d.length(low)
	if err != nil {
		return 0, err
	}
	if n > uint64(d.c.Len()/minSize) {
		return 0, d.fail(StageLength, ErrShortBuffer)
	}
	return int(n), nil
}

func (d *decoder) ptr() (TypePtr, error) {
	p, err := readTypePtr(d.c)
	if err != nil {
		return TypePtr{}, d.fail(StageTypePtr, err)
	}
	return p, nil
}

func (d *decoder) typ(depth int) (Type, error) {
	if depth > MaxDepth {
		return Type{}, d.fail(StageDepth, ErrTooDeep)
	}
	b, err := d.c.Byte()
	if err != nil {
		return Type{}, d.fail(StageTag, err)
	}
	kind, ok := ParseKind(b)
	if !ok {
		return Type{}, d.failAt(StageTag, ErrUnknownTag)
	}

	switch kind {
	case KindOption, KindList:
		elem, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		return Type{kind: kind, elem: &elem}, nil
	case KindMap:
		k, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		v, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		return MapOf(k, v), nil
	case KindTuple:
		n, err := d.c.Byte()
		if err != nil {
			return Type{}, d.fail(StageLength, err)
		}
		if int(n) > d.c.Len() {
			return Type{}, d.fail(StageLength, ErrShortBuffer)
		}
		if n == 0 {
			return TupleOf(), nil
		}
		elems := make([]Type, n)
		for i := range elems {
			if elems[i], err = d.typ(depth + 1); err != nil {
				return Type{}, err
			}
		}
		return Type{kind: KindTuple, elems: elems}, nil
	case KindAlias, KindEnum, KindStruct, KindCEnum:
		p, err := d.ptr()
		if err != nil {
			return Type{}, err
		}
		return Type{kind: kind, ptr: p}, nil
	}
	return Type{kind: kind}, nil
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, d.fail(StageDepth, ErrTooDeep)
	}
	tag, err := d.c.Byte()
	if err != nil {
		return nil, d.fail(StageHighTag, err)
	}
	h, low := wire.Unpack(tag)
	high, ok := ParseHighTag(h)
	if !ok {
		return nil, d.failAt(StageHighTag, ErrUnknownHighTag)
	}

	switch high {
	case HighInline:
		return d.inline(low, depth)
	case HighInt:
		n, err := d.length(low)
		if err != nil {
			return nil, err
		}
		return Int(wire.UnZigZag(n)), nil
	case HighUint:
		n, err := d.length(low)
		if err != nil {
			return nil, err
		}
		return Uint(n), nil
	case HighFloat:
		if low > 8 {
			return nil, d.failAt(StageFloat, ErrFloatLength)
		}
		p, err := d.c.Next(int(low))
		if err != nil {
			return nil, d.fail(StageFloat, err)
		}
		bits, _ := wire.FloatBits(p)
		return Float(math.Float64frombits(bits)), nil
	case HighString:
		p, err := d.bytes(low)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(p) {
			return nil, d.fail(StageString, ErrInvalidUTF8)
		}
		return String(p), nil
	case HighBytes:
		p, err := d.bytes(low)
		if err != nil {
			return nil, err
		}
		if len(p) == 0 {
			return Bytes(nil), nil
		}
		return Bytes(bytes.Clone(p)), nil
	case HighList:
		n, err := d.count(low, 1)
		if err != nil {
			return nil, err
		}
		elem, err := d.typ(depth + 1)
		if err != nil {
			return nil, err
		}
		items, err := d.values(n, depth)
		if err != nil {
			return nil, err
		}
		return List{Elem: elem, Items: items}, nil
	case HighMap:
		return d.mapValue(low, depth)
	case HighTuple:
		n, err := d.count(low, 1)
		if err != nil {
			return nil, err
		}
		items, err := d.values(n, depth)
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil
	case HighEnum:
		variant, err := d.length(low)
		if err != nil {
			return nil, err
		}
		p, err := d.ptr()
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		return Enum{Ptr: p, Variant: variant, Value: v}, nil
	case HighCEnum:
		variant, err := d.length(low)
		if err != nil {
			return nil, err
		}
		p, err := d.ptr()
		if err != nil {
			return nil, err
		}
		return CEnum{Ptr: p, Variant: variant}, nil
	case HighStruct:
		n, err := d.count(low, 1)
		if err != nil {
			return nil, err
		}
		p, err := d.ptr()
		if err != nil {
			return nil, err
		}
		fields, err := d.values(n, depth)
		if err != nil {
			return nil, err
		}
		return Struct{Ptr: p, Fields: fields}, nil
	}
	// ParseHighTag admits nothing else
	return nil, d.failAt(StageHighTag, ErrUnknownHighTag)
}

func (d *decoder) inline(low byte, depth int) (Value, error) {
	tag, ok := ParseInlineTag(low)
	if !ok {
		return nil, d.failAt(StageLowTag, ErrUnknownLowTag)
	}

	switch tag {
	case InlineUnit:
		return Unit{}, nil
	case InlineFalse:
		return Bool(false), nil
	case InlineTrue:
		return Bool(true), nil
	case InlineNone:
		t, err := d.typ(depth + 1)
		if err != nil {
			return nil, err
		}
		return None(t), nil
	case InlineSome:
		t, err := d.typ(depth + 1)
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		return Some(t, v), nil
	case InlineAlias:
		p, err := d.ptr()
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		return Alias{Ptr: p, Value: v}, nil
	case InlineType:
		t, err := d.typ(depth + 1)
		if err != nil {
			return nil, err
		}
		return t, nil
	case InlineTypePtr:
		p, err := d.ptr()
		if err != nil {
			return nil, err
		}
		return p, nil
	case InlineObjectPtr:
		o, err := ReadObjectPtr(d.c)
		if err != nil {
			return nil, d.fail(StagePayload, err)
		}
		return o, nil
	case InlineTimestamp:
		ts, err := ReadTimestamp(d.c)
		if err != nil {
			return nil, d.fail(StagePayload, err)
		}
		return ts, nil
	case InlineUint8:
		b, err := d.c.Byte()
		if err != nil {
			return nil, d.fail(StagePayload, err)
		}
		return Uint8(b), nil
	case InlineUint16:
		n, err := d.c.Uint16()
		if err != nil {
			return nil, d.fail(StagePayload, err)
		}
		return Uint16(n), nil
	case InlineUint32:
		n, err := d.c.Uint32()
		if err != nil {
			return nil, d.fail(StagePayload, err)
		}
		return Uint32(n), nil
	}
	return nil, d.failAt(StageLowTag, ErrUnknownLowTag)
}

func (d *decoder) bytes(low byte) ([]byte, error) {
	n, err := d.count(low, 1)
	if err != nil {
		return nil, err
	}
	p, err := d.c.Next(n)
	if err != nil {
		return nil, d.fail(StagePayload, err)
	}
	return p, nil
}

func (d *decoder) values(n int, depth int) ([]Value, error) {
	if n == 0 {
		return nil, nil
	}
	vs := make([]Value, n)
	for i := range vs {
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func (d *decoder) mapValue(low byte, depth int) (Value, error) {
	n, err := d.count(low, 2)
	if err != nil {
		return nil, err
	}
	k, err := d.typ(depth + 1)
	if err != nil {
		return nil, err
	}
	v, err := d.typ(depth + 1)
	if err != nil {
		return nil, err
	}
	m := Map{Key: k, Val: v}
	if n > 0 {
		m.Entries = make([]Entry, n)
	}
	for i := range m.Entries {
		if m.Entries[i].Key, err = d.value(depth + 1); err != nil {
			return nil, err
		}
		if m.Entries[i].Value, err = d.value(depth + 1); err != nil {
			return nil, err
		}
	}
	return m, nil
}
