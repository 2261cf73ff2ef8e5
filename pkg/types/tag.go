package types

// Kind is the tag byte of an encoded Type descriptor
type Kind byte

const (
	KindUnit      Kind = 0x00
	KindBool      Kind = 0x01
	KindInt       Kind = 0x02
	KindUint      Kind = 0x03
	KindFloat     Kind = 0x04
	KindString    Kind = 0x05
	KindBytes     Kind = 0x06
	KindOption    Kind = 0x07
	KindList      Kind = 0x08
	KindMap       Kind = 0x09
	KindTuple     Kind = 0x0a
	KindAlias     Kind = 0x0b
	KindEnum      Kind = 0x0c
	KindStruct    Kind = 0x0d
	KindCEnum     Kind = 0x0e
	KindType      Kind = 0x0f
	KindTypePtr   Kind = 0x10
	KindObjectPtr Kind = 0x11
	KindTimestamp Kind = 0x12
	KindUint8     Kind = 0x13
	KindUint16    Kind = 0x14
	KindUint32    Kind = 0x15
	// KindUnknown is the element type of lists whose items differ in type.
	// Each item still describes itself.
	KindUnknown Kind = 0x16
)

var kindNames = [...]string{
	KindUnit:      "unit",
	KindBool:      "bool",
	KindInt:       "int",
	KindUint:      "uint",
	KindFloat:     "float",
	KindString:    "string",
	KindBytes:     "bytes",
	KindOption:    "option",
	KindList:      "list",
	KindMap:       "map",
	KindTuple:     "tuple",
	KindAlias:     "alias",
	KindEnum:      "enum",
	KindStruct:    "struct",
	KindCEnum:     "cenum",
	KindType:      "type",
	KindTypePtr:   "typeptr",
	KindObjectPtr: "objectptr",
	KindTimestamp: "timestamp",
	KindUint8:     "u8",
	KindUint16:    "u16",
	KindUint32:    "u32",
	KindUnknown:   "unknown",
}

// ParseKind maps a tag byte to its Kind, rejecting bytes no Kind uses
func ParseKind(b byte) (Kind, bool) {
	if int(b) >= len(kindNames) {
		return 0, false
	}
	return Kind(b), true
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(invalid)"
}

// named reports whether types of this kind carry a TypePtr
func (k Kind) named() bool {
	switch k {
	case KindAlias, KindEnum, KindStruct, KindCEnum:
		return true
	}
	return false
}

// HighTag is the category nibble of an encoded Value
type HighTag byte

const (
	HighInline HighTag = 0x0
	HighInt    HighTag = 0x1
	HighUint   HighTag = 0x2
	HighFloat  HighTag = 0x3
	HighString HighTag = 0x4
	HighBytes  HighTag = 0x5
	HighList   HighTag = 0x6
	HighMap    HighTag = 0x7
	HighTuple  HighTag = 0x8
	HighEnum   HighTag = 0x9
	HighCEnum  HighTag = 0xa
	HighStruct HighTag = 0xb
)

// ParseHighTag maps a high nibble to its HighTag. 0xC through 0xF are unused.
func ParseHighTag(n byte) (HighTag, bool) {
	if n > byte(HighStruct) {
		return 0, false
	}
	return HighTag(n), true
}

// InlineTag is the low nibble of a value in the inline category
type InlineTag byte

const (
	InlineUnit      InlineTag = 0x0
	InlineFalse     InlineTag = 0x1
	InlineTrue      InlineTag = 0x2
	InlineNone      InlineTag = 0x3
	InlineSome      InlineTag = 0x4
	InlineAlias     InlineTag = 0x5
	InlineType      InlineTag = 0x6
	InlineTypePtr   InlineTag = 0x7
	InlineObjectPtr InlineTag = 0x8
	InlineTimestamp InlineTag = 0x9
	InlineUint8     InlineTag = 0xa
	InlineUint16    InlineTag = 0xb
	InlineUint32    InlineTag = 0xc
)

// ParseInlineTag maps a low nibble of the inline category to its InlineTag.
// 0xD through 0xF are unused.
func ParseInlineTag(n byte) (InlineTag, bool) {
	if n > byte(InlineUint32) {
		return 0, false
	}
	return InlineTag(n), true
}

// Low nibble markers of the length scheme
const (
	maxInline byte = 11
	ext8      byte = 0xc
	ext16     byte = 0xd
	ext32     byte = 0xe
	ext64     byte = 0xf
)
