package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValueKind discriminates the variants of an extracted Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindCount
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindCount:
		return "count"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a typed field extracted from markup. Exactly one variant is set,
// according to Kind. Callers switch on Kind instead of runtime type checks.
type Value struct {
	Kind ValueKind

	str   string
	count int64
	list  []string
}

// StringValue creates a string-kind Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, str: s}
}

// CountValue creates a count-kind Value holding a normalized integer.
func CountValue(n int64) Value {
	return Value{Kind: KindCount, count: n}
}

// ListValue creates a list-kind Value. The slice is not copied.
func ListValue(items []string) Value {
	return Value{Kind: KindList, list: items}
}

// Text returns the string variant, or "" for other kinds.
func (v Value) Text() string {
	if v.Kind != KindString {
		return ""
	}
	return v.str
}

// Count returns the count variant, or 0 for other kinds.
func (v Value) Count() int64 {
	if v.Kind != KindCount {
		return 0
	}
	return v.count
}

// List returns the list variant, or nil for other kinds.
func (v Value) List() []string {
	if v.Kind != KindList {
		return nil
	}
	return v.list
}

// String renders the value for logs and CLI output.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.str
	case KindCount:
		return fmt.Sprintf("%d", v.count)
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

// MarshalJSON encodes the active variant directly: strings as JSON strings,
// counts as JSON numbers, lists as JSON arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindCount:
		return json.Marshal(v.count)
	case KindList:
		return json.Marshal(v.list)
	default:
		return json.Marshal(v.str)
	}
}
