package types

import (
	"fmt"
	"strings"
)

// Schema is implemented by record types that can be stored as a Value
type Schema interface {
	Serialize() Value
}

// Deserializer is implemented by record types that can be restored from the
// Value their Serialize produced
type Deserializer interface {
	Deserialize(Value) error
}

func describe(v Value) string {
	if v == nil {
		return "nil"
	}
	return TypeOf(v).String()
}

// Expect asserts that v holds a T
func Expect[T Value](v Value) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		want := strings.TrimPrefix(fmt.Sprintf("%T", zero), "types.")
		return zero, &SchemaError{Want: strings.ToLower(want), Got: describe(v)}
	}
	return t, nil
}

// ExpectStruct asserts that v is a record named ptr with exactly n fields and
// returns the fields
func ExpectStruct(v Value, ptr TypePtr, n int) ([]Value, error) {
	s, ok := v.(Struct)
	if !ok || s.Ptr != ptr {
		return nil, &SchemaError{Want: StructOf(ptr).String(), Got: describe(v)}
	}
	if len(s.Fields) != n {
		return nil, &SchemaError{
			Want: fmt.Sprintf("%d fields", n),
			Got:  fmt.Sprintf("%d fields", len(s.Fields)),
		}
	}
	return s.Fields, nil
}

// ExpectEnum asserts that v is a variant of the data-carrying enum ptr
func ExpectEnum(v Value, ptr TypePtr) (uint64, Value, error) {
	e, ok := v.(Enum)
	if !ok || e.Ptr != ptr {
		return 0, nil, &SchemaError{Want: EnumOf(ptr).String(), Got: describe(v)}
	}
	return e.Variant, e.Value, nil
}

// ExpectCEnum asserts that v is a variant of the C-style enum ptr
func ExpectCEnum(v Value, ptr TypePtr) (uint64, error) {
	e, ok := v.(CEnum)
	if !ok || e.Ptr != ptr {
		return 0, &SchemaError{Want: CEnumOf(ptr).String(), Got: describe(v)}
	}
	return e.Variant, nil
}
