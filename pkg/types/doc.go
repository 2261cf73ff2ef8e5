// Package types implements the self-describing binary encoding for Zeon's
// dynamic type system.
//
// A Type describes the shape of data and a Value is one datum of that shape.
// Composite values (options, lists, maps) carry their element types inline,
// so any encoded Value can be decoded without external schema.
//
// # Value Format
//
// Every encoded value starts with one tag byte split into two nibbles:
//
//	[high(4)][low(4)][payload...]
//
// The high nibble selects a category:
//
//	0x0 inline     low selects unit, bool, option, alias, type, type pointer,
//	               object pointer, timestamp or a fixed-width u8/u16/u32
//	0x1 int        zigzag encoded, length scheme below
//	0x2 uint       length scheme below
//	0x3 float      low = number of stored bytes, trailing zero bytes dropped
//	0x4 string     low = byte length, then UTF-8 bytes
//	0x5 bytes      low = byte length, then raw bytes
//	0x6 list       low = count, element Type, values
//	0x7 map        low = count, key Type, value Type, key/value pairs
//	0x8 tuple      low = count, values
//	0x9 enum       low = variant, TypePtr, value
//	0xA c-enum     low = variant, TypePtr
//	0xB struct     low = field count, TypePtr, field values
//
// # Length Scheme
//
// Lengths, counts, variants and unsigned integers below 12 are stored in the
// low nibble itself. Larger numbers use a marker and big-endian extra bytes:
//
//	0xC  1 byte    up to 255
//	0xD  2 bytes   up to 65535
//	0xE  4 bytes   up to 4294967295
//	0xF  8 bytes
//
// # Type Pointers
//
// Named types are referenced by a TypePtr: either a 16-bit standard pointer
// written as two big-endian bytes, or 0xFF followed by the first 7 bytes of
// the SHAKE-256 hash of the type's path. Standard pointers never have 0xFF as
// their high byte.
//
// # Usage
//
//	v := types.Tuple{types.Int(-3), types.String("zeon")}
//	data, err := types.Encode(v)
//	if err != nil {
//	    return err
//	}
//	back, err := types.Decode(data)
//
// Decode never panics on malformed input. Failures are reported as a
// *DecodeError naming the stage that failed and the offset it failed at.
package types
