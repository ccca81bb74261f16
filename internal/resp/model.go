package resp

import (
	"bytes"
	"strconv"
	"strings"
)

const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

// Value is a single RESP2 value. Type selects which of the other fields is meaningful
type Value struct {
	String  []byte  // SimpleString, Error, BulkString
	Array   []Value // Array
	Integer int64   // Integer
	Type    byte
	IsNull  bool // nil BulkString
}

// IsBulk reports whether v is a non-null bulk string
func (v Value) IsBulk() bool {
	return v.Type == TypeBulkString && !v.IsNull
}

// Text returns the payload of a string-like value
func (v Value) Text() string {
	return string(v.String)
}

// Equal reports whether two values are structurally identical
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}

	switch v.Type {
	case TypeSimpleString, TypeError:
		return bytes.Equal(v.String, o.String)
	case TypeInteger:
		return v.Integer == o.Integer
	case TypeBulkString:
		if v.IsNull || o.IsNull {
			return v.IsNull == o.IsNull
		}
		return bytes.Equal(v.String, o.String)
	case TypeArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// Inspect renders the value in a compact human readable form for logs and test failures
func (v Value) Inspect() string {
	var sb strings.Builder
	v.describe(&sb)
	return sb.String()
}

func (v Value) describe(sb *strings.Builder) {
	switch v.Type {
	case TypeSimpleString:
		sb.WriteString("Str(")
		sb.WriteString(strconv.Quote(string(v.String)))
		sb.WriteByte(')')
	case TypeError:
		sb.WriteString("Err(")
		sb.WriteString(strconv.Quote(string(v.String)))
		sb.WriteByte(')')
	case TypeInteger:
		sb.WriteString("Int(")
		sb.WriteString(strconv.FormatInt(v.Integer, 10))
		sb.WriteByte(')')
	case TypeBulkString:
		if v.IsNull {
			sb.WriteString("Null")
			return
		}
		sb.WriteString("Bulk(")
		sb.WriteString(strconv.Quote(string(v.String)))
		sb.WriteByte(')')
	case TypeArray:
		sb.WriteString("Arr[")
		for i, el := range v.Array {
			if i > 0 {
				sb.WriteString(", ")
			}
			el.describe(sb)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("Invalid(")
		sb.WriteString(strconv.Itoa(int(v.Type)))
		sb.WriteByte(')')
	}
}
