package types

import (
	"bytes"
	"encoding/hex"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

var testHashPtr = HashPtr([HashPtrLen]byte{0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32})

func TestGoldenMap(t *testing.T) {
	v := Map{
		Key: UintType,
		Val: ListOf(StringType),
		Entries: []Entry{
			{Key: Uint(123), Value: List{Elem: StringType, Items: []Value{String("hello"), String("goodbye")}}},
			{Key: Uint(999999), Value: List{Elem: StringType, Items: []Value{String("thanks"), String("how are you")}}},
		},
	}
	want := mustHex(t, "72 03 0805 2c7b 62 05 45 68656c6c6f 47 676f6f64627965 2e 000f423f 62 05 46 7468616e6b73 4b 686f772061726520796f75")

	got, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	back, err := Decode(want)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestGoldenTuple(t *testing.T) {
	v := Tuple{
		Unit{},
		Bool(false),
		Int(-7777777),
		Uint(24393),
		Float(50.0),
		String("Berylosft"),
		Bytes("(\x00)"),
		None(StringType),
		Some(BoolType, Bool(true)),
		Alias{Ptr: testHashPtr, Value: Bytes{0xff}},
		Enum{Ptr: MustStdPtr(0x5f49), Variant: 5, Value: Int(5)},
		Enum{Ptr: MustStdPtr(0x00aa), Variant: 163, Value: Uint(12)},
		ListOf(ListOf(StructOf(MustStdPtr(0xfe50)))),
		testHashPtr,
		ObjectPtr{Type: 0x0123, ID: 0x0123456789abcdef},
		Some(TupleOf(IntType, UnitType), Tuple{Int(9), Unit{}}),
	}
	want := mustHex(t, "8c10 00 01 1e00ed5be1 2d5f49 324049 49426572796c6f736674 53280029 "+
		"0305 040102 05fffedcba98765432 51ff 955f49 1a 9ca3 00aa 2c0c 06 08 08 0dfe50 "+
		"07 fffedcba98765432 08 0123 0123456789abcdef 04 0a 02 02 00 82 1c12 00")

	got, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	back, err := Decode(want)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestLengthBoundaries(t *testing.T) {
	tests := []struct {
		n    uint64
		size int
	}{
		{0, 1},
		{11, 1},
		{12, 2},
		{255, 2},
		{256, 3},
		{65535, 3},
		{65536, 5},
		{4294967295, 5},
		{4294967296, 9},
		{math.MaxUint64, 9},
	}

	for _, tt := range tests {
		got, err := Encode(Uint(tt.n))
		require.NoError(t, err)
		assert.Len(t, got, tt.size, "Uint(%d)", tt.n)

		back, err := Decode(got)
		require.NoError(t, err)
		assert.Equal(t, Uint(tt.n), back)
	}

	t.Run("markers", func(t *testing.T) {
		got, _ := Encode(Uint(12))
		assert.Equal(t, []byte{0x2c, 0x0c}, got)
		got, _ = Encode(Uint(256))
		assert.Equal(t, []byte{0x2d, 0x01, 0x00}, got)
		got, _ = Encode(Uint(65536))
		assert.Equal(t, []byte{0x2e, 0x00, 0x01, 0x00, 0x00}, got)
		got, _ = Encode(Uint(4294967296))
		assert.Equal(t, []byte{0x2f, 0, 0, 0, 1, 0, 0, 0, 0}, got)
	})

	t.Run("signed", func(t *testing.T) {
		for n := int64(-6); n <= 5; n++ {
			got, err := Encode(Int(n))
			require.NoError(t, err)
			assert.Len(t, got, 1, "Int(%d)", n)
		}
		got, _ := Encode(Int(6))
		assert.Equal(t, []byte{0x1c, 0x0c}, got)
		got, _ = Encode(Int(-7))
		assert.Equal(t, []byte{0x1c, 0x0d}, got)
	})

	t.Run("string length", func(t *testing.T) {
		for _, n := range []int{0, 11, 12, 255, 256, 65536} {
			got, err := Encode(String(strings.Repeat("z", n)))
			require.NoError(t, err)
			header := len(got) - n
			switch {
			case n < 12:
				assert.Equal(t, 1, header)
			case n < 256:
				assert.Equal(t, 2, header)
			case n < 65536:
				assert.Equal(t, 3, header)
			default:
				assert.Equal(t, 5, header)
			}
		}
	})

	t.Run("enum variant", func(t *testing.T) {
		got, err := Encode(CEnum{Ptr: MustStdPtr(1), Variant: 300})
		require.NoError(t, err)
		assert.Equal(t, []byte{0xad, 0x01, 0x2c, 0x00, 0x01}, got)
	})
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want []byte
	}{
		{0, []byte{0x30}},
		{50.0, []byte{0x32, 0x40, 0x49}},
		{-2.5, []byte{0x32, 0xc0, 0x04}},
		{math.Pi, append([]byte{0x38}, 0x40, 0x09, 0x21, 0xfb, 0x54, 0x44, 0x2d, 0x18)},
		{math.Inf(1), []byte{0x32, 0x7f, 0xf0}},
		{math.SmallestNonzeroFloat64, []byte{0x38, 0, 0, 0, 0, 0, 0, 0, 1}},
	}

	for _, tt := range tests {
		got, err := Encode(Float(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Float(%v)", tt.in)

		back, err := Decode(got)
		require.NoError(t, err)
		f, ok := back.(Float)
		require.True(t, ok)
		assert.Equal(t, math.Float64bits(tt.in), math.Float64bits(float64(f)))
	}

	t.Run("nan payload survives", func(t *testing.T) {
		bits := uint64(0x7ff8000000000abc)
		got, err := Encode(Float(math.Float64frombits(bits)))
		require.NoError(t, err)
		back, err := Decode(got)
		require.NoError(t, err)
		assert.Equal(t, bits, math.Float64bits(float64(back.(Float))))
	})
}

func TestRoundTrip(t *testing.T) {
	pathPtr := PtrFromPath("example::widget")
	tests := []struct {
		name string
		v    Value
	}{
		{"unit", Unit{}},
		{"true", Bool(true)},
		{"min int", Int(math.MinInt64)},
		{"max int", Int(math.MaxInt64)},
		{"max uint", Uint(math.MaxUint64)},
		{"empty string", String("")},
		{"unicode", String("日本語のテキスト")},
		{"bytes", Bytes(bytes.Repeat([]byte{0xab}, 300))},
		{"empty bytes", Bytes(nil)},
		{"u8", Uint8(0xfe)},
		{"u16", Uint16(0xbeef)},
		{"u32", Uint32(0xdeadbeef)},
		{"timestamp", Timestamp{Secs: -5, Nanos: 999_999_999}},
		{"object", ObjectPtr{Type: 0xffff, ID: math.MaxUint64}},
		{"type ptr std", MustStdPtr(0xfeff)},
		{"type ptr hash", pathPtr},
		{"none", None(MapOf(StringType, OptionOf(IntType)))},
		{"nested some", Some(OptionOf(IntType), Some(IntType, Int(-1)))},
		{"empty list", List{Elem: UnknownType}},
		{"heterogeneous list", List{Elem: UnknownType, Items: []Value{Int(1), String("two"), Unit{}}}},
		{"empty map", Map{Key: StringType, Val: BytesType}},
		{"empty tuple", Tuple(nil)},
		{"alias", Alias{Ptr: pathPtr, Value: List{Elem: FloatType, Items: []Value{Float(1.5)}}}},
		{"cenum", CEnum{Ptr: MustStdPtr(5), Variant: 4}},
		{"enum", Enum{Ptr: MustStdPtr(6), Variant: 2, Value: Tuple{Uint(1), Uint(2)}}},
		{"struct", Struct{Ptr: pathPtr, Fields: []Value{Timestamp{Secs: 1}, ObjectPtr{Type: 1, ID: 2}, Uint16(3)}}},
		{"empty struct", Struct{Ptr: MustStdPtr(9)}},
		{"type", MapOf(TupleOf(IntType, AliasOf(pathPtr)), CEnumOf(MustStdPtr(2)))},
		{"empty tuple type", TupleOf()},
		{"large list", List{Elem: UintType, Items: func() []Value {
			items := make([]Value, 1000)
			for i := range items {
				items[i] = Uint(i * i)
			}
			return items
		}()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.v)
			require.NoError(t, err)

			again, err := Encode(tt.v)
			require.NoError(t, err)
			assert.Equal(t, data, again, "encoding must be deterministic")

			back, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.v, back)
		})
	}
}

func TestAppendValue(t *testing.T) {
	prefix := []byte{0xaa, 0xbb}
	got, err := AppendValue(prefix, Uint(3))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0x23}, got)

	got, err = AppendValue(prefix, Tuple{nil})
	require.Error(t, err)
	assert.Equal(t, prefix, got, "failed append returns the input slice")
}

func TestEncodeErrors(t *testing.T) {
	t.Run("nil value", func(t *testing.T) {
		_, err := Encode(Tuple{Unit{}, nil})
		assert.ErrorIs(t, err, ErrNilValue)
		var encErr *EncodeError
		assert.ErrorAs(t, err, &encErr)
	})

	t.Run("reserved std pointer", func(t *testing.T) {
		_, err := Encode(TypePtr{std: 0xff01})
		assert.ErrorIs(t, err, ErrInvalidTypePtr)
	})

	t.Run("tuple type arity", func(t *testing.T) {
		elems := make([]Type, 256)
		for i := range elems {
			elems[i] = UnitType
		}
		_, err := EncodeType(TupleOf(elems...))
		assert.ErrorIs(t, err, ErrTupleArity)

		_, err = EncodeType(TupleOf(elems[:255]...))
		assert.NoError(t, err)
	})

	t.Run("too deep", func(t *testing.T) {
		var v Value = Unit{}
		for i := 0; i < MaxDepth+1; i++ {
			v = Tuple{v}
		}
		_, err := Encode(v)
		assert.ErrorIs(t, err, ErrTooDeep)
	})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		stage Stage
		err   error
	}{
		{"empty", nil, StageHighTag, ErrShortBuffer},
		{"unknown high tag", []byte{0xc0}, StageHighTag, ErrUnknownHighTag},
		{"unknown inline tag", []byte{0x0d}, StageLowTag, ErrUnknownLowTag},
		{"float too long", []byte{0x39, 0, 0, 0, 0, 0, 0, 0, 0, 0}, StageFloat, ErrFloatLength},
		{"float short", []byte{0x34, 0x40}, StageFloat, ErrShortBuffer},
		{"invalid utf8", []byte{0x42, 0xff, 0xfe}, StageString, ErrInvalidUTF8},
		{"string short", []byte{0x45, 'a'}, StageLength, ErrShortBuffer},
		{"missing extension", []byte{0x2c}, StageLength, ErrShortBuffer},
		{"trailing bytes", []byte{0x00, 0x00}, StageTrailing, ErrTrailingBytes},
		{"unknown type tag", []byte{0x03, 0x17}, StageTag, ErrUnknownTag},
		{"huge list", []byte{0x6f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}, StageLength, ErrShortBuffer},
		{"huge map", []byte{0x72, 0x00, 0x00, 0x00}, StageLength, ErrShortBuffer},
		{"short hash ptr", []byte{0x07, 0xff, 0x01, 0x02}, StageTypePtr, ErrShortBuffer},
		{"short std ptr", []byte{0xa0, 0x01}, StageTypePtr, ErrShortBuffer},
		{"short object ptr", []byte{0x08, 0x00, 0x01}, StagePayload, ErrShortBuffer},
		{"short timestamp", []byte{0x09, 0, 0, 0, 0}, StagePayload, ErrShortBuffer},
		{"short u32", []byte{0x0c, 0xde, 0xad}, StagePayload, ErrShortBuffer},
		{"tuple type short", []byte{0x06, 0x0a, 0x03, 0x00}, StageLength, ErrShortBuffer},
		{"truncated list", []byte{0x62, 0x03, 0x21}, StageHighTag, ErrShortBuffer},
		{"too deep", append(bytes.Repeat([]byte{0x81}, MaxDepth+1), 0x00), StageDepth, ErrTooDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode(tt.in)
			assert.Nil(t, v)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, tt.stage, decErr.Stage)
		})
	}

	t.Run("offset points at bad byte", func(t *testing.T) {
		_, err := Decode([]byte{0x82, 0x00, 0xd0})
		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, 2, decErr.Offset)
	})
}

func TestMaxDepthBoundary(t *testing.T) {
	var v Value = Unit{}
	for i := 0; i < MaxDepth; i++ {
		v = Tuple{v}
	}
	data, err := Encode(v)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestTypeCodec(t *testing.T) {
	tests := []struct {
		name string
		t    Type
		want string
	}{
		{"leaf", UintType, "03"},
		{"unknown", UnknownType, "16"},
		{"map", MapOf(UintType, ListOf(StringType)), "09 03 08 05"},
		{"tuple", TupleOf(IntType, UnitType), "0a 02 02 00"},
		{"struct", StructOf(MustStdPtr(0xfe50)), "0d fe50"},
		{"alias hash", AliasOf(testHashPtr), "0b ff fedcba98765432"},
		{"option enum", OptionOf(EnumOf(MustStdPtr(6))), "07 0c 0006"},
		{"cenum", CEnumOf(MustStdPtr(5)), "0e 0005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeType(tt.t)
			require.NoError(t, err)
			assert.Equal(t, mustHex(t, tt.want), got)

			back, err := DecodeType(got)
			require.NoError(t, err)
			assert.Equal(t, tt.t, back)
		})
	}

	_, err := DecodeType([]byte{0x03, 0x03})
	assert.ErrorIs(t, err, ErrTrailingBytes)

	_, err = DecodeType([]byte{0x20})
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "map<uint, list<string>>", MapOf(UintType, ListOf(StringType)).String())
	assert.Equal(t, "(int, unit)", TupleOf(IntType, UnitType).String())
	assert.Equal(t, "struct<std:0009>", StructOf(MustStdPtr(9)).String())
	assert.Equal(t, "option<enum<hash:fedcba98765432>>", OptionOf(EnumOf(testHashPtr)).String())
}

func TestTypeAccessors(t *testing.T) {
	m := MapOf(StringType, IntType)
	assert.Equal(t, KindMap, m.Kind())
	assert.Equal(t, StringType, m.Elem())
	assert.Equal(t, IntType, m.Val())

	_, ok := m.Ptr()
	assert.False(t, ok)

	p, ok := StructOf(testHashPtr).Ptr()
	assert.True(t, ok)
	assert.Equal(t, testHashPtr, p)

	assert.Equal(t, UnitType, BoolType.Elem())
	assert.Len(t, TupleOf(IntType, IntType, BoolType).Elems(), 3)
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TupleOf(IntType, StringType), TypeOf(Tuple{Int(1), String("a")}))
	assert.Equal(t, ListOf(UintType), TypeOf(List{Elem: UintType}))
	assert.Equal(t, TypeType, TypeOf(IntType))
	assert.Equal(t, StructOf(testHashPtr), TypeOf(Struct{Ptr: testHashPtr}))
	assert.Equal(t, UnknownType, TypeOf(nil))
}

func TestParseTags(t *testing.T) {
	for b := 0; b < 256; b++ {
		k, ok := ParseKind(byte(b))
		assert.Equal(t, b <= int(KindUnknown), ok, "kind %#x", b)
		if ok {
			assert.Equal(t, Kind(b), k)
			assert.NotEqual(t, "kind(invalid)", k.String())
		}
	}
	for n := byte(0); n < 16; n++ {
		_, ok := ParseHighTag(n)
		assert.Equal(t, n < 0xc, ok)
		_, ok = ParseInlineTag(n)
		assert.Equal(t, n < 0xd, ok)
	}
}
