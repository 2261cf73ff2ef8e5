package types

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Format renders v as human-readable text. The output is for display only and
// is not parsed back.
func Format(v Value) string {
	var sb strings.Builder
	formatValue(&sb, v)
	return sb.String()
}

func formatValue(sb *strings.Builder, v Value) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("<nil>")
	case Unit:
		sb.WriteString("()")
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(v)))
	case Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Uint:
		sb.WriteString(strconv.FormatUint(uint64(v), 10))
	case Float:
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case String:
		sb.WriteString(strconv.Quote(string(v)))
	case Bytes:
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(v))
	case Uint8:
		sb.WriteString(strconv.FormatUint(uint64(v), 10) + "u8")
	case Uint16:
		sb.WriteString(strconv.FormatUint(uint64(v), 10) + "u16")
	case Uint32:
		sb.WriteString(strconv.FormatUint(uint64(v), 10) + "u32")
	case Option:
		if v.Value == nil {
			sb.WriteString("none")
			return
		}
		sb.WriteString("some(")
		formatValue(sb, v.Value)
		sb.WriteByte(')')
	case List:
		sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			formatValue(sb, item)
		}
		sb.WriteByte(']')
	case Map:
		sb.WriteByte('{')
		for i, en := range v.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			formatValue(sb, en.Key)
			sb.WriteString(": ")
			formatValue(sb, en.Value)
		}
		sb.WriteByte('}')
	case Tuple:
		sb.WriteByte('(')
		for i, item := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			formatValue(sb, item)
		}
		sb.WriteByte(')')
	case Alias:
		sb.WriteString(v.Ptr.String())
		sb.WriteByte('(')
		formatValue(sb, v.Value)
		sb.WriteByte(')')
	case Enum:
		sb.WriteString(v.Ptr.String())
		sb.WriteString("::")
		sb.WriteString(strconv.FormatUint(v.Variant, 10))
		sb.WriteByte('(')
		formatValue(sb, v.Value)
		sb.WriteByte(')')
	case CEnum:
		sb.WriteString(v.Ptr.String())
		sb.WriteString("::")
		sb.WriteString(strconv.FormatUint(v.Variant, 10))
	case Struct:
		sb.WriteString(v.Ptr.String())
		sb.WriteString(" {")
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteByte(' ')
			formatValue(sb, f)
		}
		sb.WriteString(" }")
	case Type:
		sb.WriteString("type ")
		sb.WriteString(v.String())
	case TypePtr:
		sb.WriteString(v.String())
	case ObjectPtr:
		sb.WriteString("object ")
		sb.WriteString(v.String())
	case Timestamp:
		sb.WriteString(v.String())
	}
}
