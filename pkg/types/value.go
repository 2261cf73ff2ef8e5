package types

// Value is one datum of the dynamic type system. The set of implementations
// is closed: it is exactly the types declared in this package.
type Value interface {
	isValue()
}

type (
	// Unit is the empty value
	Unit struct{}
	// Bool is a boolean
	Bool bool
	// Int is a signed integer, zigzag encoded on the wire
	Int int64
	// Uint is an unsigned integer
	Uint uint64
	// Float is a 64-bit float stored with its zero tail dropped
	Float float64
	// String is UTF-8 text
	String string
	// Bytes is an opaque byte string
	Bytes []byte
	// Uint8 is a fixed one byte unsigned integer
	Uint8 uint8
	// Uint16 is a fixed two byte unsigned integer
	Uint16 uint16
	// Uint32 is a fixed four byte unsigned integer
	Uint32 uint32
	// Tuple is a fixed-arity sequence of values of any types
	Tuple []Value
)

// Option is an optional value of type Elem. A nil Value means none.
type Option struct {
	Elem  Type
	Value Value
}

// Some returns a present Option of type t
func Some(t Type, v Value) Option { return Option{Elem: t, Value: v} }

// None returns an absent Option of type t
func None(t Type) Option { return Option{Elem: t} }

// IsSome reports whether the option holds a value
func (o Option) IsSome() bool { return o.Value != nil }

// List is a homogeneous sequence. Items should conform to Elem unless Elem is
// UnknownType.
type List struct {
	Elem  Type
	Items []Value
}

// Entry is one key/value pair of a Map
type Entry struct {
	Key   Value
	Value Value
}

// Map is a sequence of key/value pairs kept in insertion order
type Map struct {
	Key     Type
	Val     Type
	Entries []Entry
}

// Alias wraps a value under a named type
type Alias struct {
	Ptr   TypePtr
	Value Value
}

// Enum is one variant of a data-carrying enum together with its payload
type Enum struct {
	Ptr     TypePtr
	Variant uint64
	Value   Value
}

// CEnum is one variant of a C-style enum
type CEnum struct {
	Ptr     TypePtr
	Variant uint64
}

// Struct is a record. Fields are positional; names belong to the schema.
type Struct struct {
	Ptr    TypePtr
	Fields []Value
}

func (Unit) isValue()      {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (Uint) isValue()      {}
func (Float) isValue()     {}
func (String) isValue()    {}
func (Bytes) isValue()     {}
func (Uint8) isValue()     {}
func (Uint16) isValue()    {}
func (Uint32) isValue()    {}
func (Tuple) isValue()     {}
func (Option) isValue()    {}
func (List) isValue()      {}
func (Map) isValue()       {}
func (Alias) isValue()     {}
func (Enum) isValue()      {}
func (CEnum) isValue()     {}
func (Struct) isValue()    {}
func (Type) isValue()      {}
func (TypePtr) isValue()   {}
func (ObjectPtr) isValue() {}
func (Timestamp) isValue() {}

// TypeOf returns the descriptor v conforms to. Tuples report the types of
// their elements; a nil Value reports UnknownType.
func TypeOf(v Value) Type {
	switch v := v.(type) {
	case Unit:
		return UnitType
	case Bool:
		return BoolType
	case Int:
		return IntType
	case Uint:
		return UintType
	case Float:
		return FloatType
	case String:
		return StringType
	case Bytes:
		return BytesType
	case Uint8:
		return Uint8Type
	case Uint16:
		return Uint16Type
	case Uint32:
		return Uint32Type
	case Tuple:
		elems := make([]Type, len(v))
		for i, e := range v {
			elems[i] = TypeOf(e)
		}
		return TupleOf(elems...)
	case Option:
		return OptionOf(v.Elem)
	case List:
		return ListOf(v.Elem)
	case Map:
		return MapOf(v.Key, v.Val)
	case Alias:
		return AliasOf(v.Ptr)
	case Enum:
		return EnumOf(v.Ptr)
	case CEnum:
		return CEnumOf(v.Ptr)
	case Struct:
		return StructOf(v.Ptr)
	case Type:
		return TypeType
	case TypePtr:
		return TypePtrType
	case ObjectPtr:
		return ObjectPtrType
	case Timestamp:
		return TimestampType
	}
	return UnknownType
}
