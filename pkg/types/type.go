package types

import (
	"strings"
)

// Type is a structural type descriptor. Types compare equal when their
// structure is equal; they have no other identity.
type Type struct {
	kind  Kind
	elem  *Type // option and list element, map key
	val   *Type // map value
	elems []Type
	ptr   TypePtr
}

// Leaf types
var (
	UnitType      = Type{kind: KindUnit}
	BoolType      = Type{kind: KindBool}
	IntType       = Type{kind: KindInt}
	UintType      = Type{kind: KindUint}
	FloatType     = Type{kind: KindFloat}
	StringType    = Type{kind: KindString}
	BytesType     = Type{kind: KindBytes}
	TypeType      = Type{kind: KindType}
	TypePtrType   = Type{kind: KindTypePtr}
	ObjectPtrType = Type{kind: KindObjectPtr}
	TimestampType = Type{kind: KindTimestamp}
	Uint8Type     = Type{kind: KindUint8}
	Uint16Type    = Type{kind: KindUint16}
	Uint32Type    = Type{kind: KindUint32}
	UnknownType   = Type{kind: KindUnknown}
)

// OptionOf returns the type of optional values of t
func OptionOf(t Type) Type { return Type{kind: KindOption, elem: &t} }

// ListOf returns the type of lists of t
func ListOf(t Type) Type { return Type{kind: KindList, elem: &t} }

// MapOf returns the type of maps from k to v
func MapOf(k, v Type) Type { return Type{kind: KindMap, elem: &k, val: &v} }

// TupleOf returns the type of tuples with the given element types
func TupleOf(elems ...Type) Type {
	if len(elems) == 0 {
		return Type{kind: KindTuple}
	}
	return Type{kind: KindTuple, elems: append([]Type(nil), elems...)}
}

// AliasOf returns the named alias type p
func AliasOf(p TypePtr) Type { return Type{kind: KindAlias, ptr: p} }

// EnumOf returns the named data-carrying enum type p
func EnumOf(p TypePtr) Type { return Type{kind: KindEnum, ptr: p} }

// CEnumOf returns the named C-style enum type p
func CEnumOf(p TypePtr) Type { return Type{kind: KindCEnum, ptr: p} }

// StructOf returns the named record type p
func StructOf(p TypePtr) Type { return Type{kind: KindStruct, ptr: p} }

// Kind returns the variant of t
func (t Type) Kind() Kind { return t.kind }

// Elem returns the element type of an option or list, or the key type of a
// map. Other kinds return UnitType.
func (t Type) Elem() Type {
	if t.elem == nil {
		return UnitType
	}
	return *t.elem
}

// Val returns the value type of a map. Other kinds return UnitType.
func (t Type) Val() Type {
	if t.val == nil {
		return UnitType
	}
	return *t.val
}

// Elems returns the element types of a tuple
func (t Type) Elems() []Type { return t.elems }

// Ptr returns the TypePtr of a named type and false for other kinds
func (t Type) Ptr() (TypePtr, bool) {
	return t.ptr, t.kind.named()
}

func (t Type) String() string {
	var sb strings.Builder
	t.format(&sb)
	return sb.String()
}

func (t Type) format(sb *strings.Builder) {
	switch t.kind {
	case KindOption, KindList:
		sb.WriteString(t.kind.String())
		sb.WriteByte('<')
		t.Elem().format(sb)
		sb.WriteByte('>')
	case KindMap:
		sb.WriteString("map<")
		t.Elem().format(sb)
		sb.WriteString(", ")
		t.Val().format(sb)
		sb.WriteByte('>')
	case KindTuple:
		sb.WriteByte('(')
		for i, e := range t.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.format(sb)
		}
		sb.WriteByte(')')
	case KindAlias, KindEnum, KindStruct, KindCEnum:
		sb.WriteString(t.kind.String())
		sb.WriteByte('<')
		sb.WriteString(t.ptr.String())
		sb.WriteByte('>')
	default:
		sb.WriteString(t.kind.String())
	}
}
