// Package sapval converts values between Go types and the literal text
// syntax used by SAP's table-read RFC.
package sapval

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ABAP internal type codes (DD03L INTTYPE) handled by this package.
const (
	TypeChar    = "C"
	TypeInteger = "I"
	TypeFloat   = "F"
	TypePacked  = "P"
)

// Format renders a value as an RFC predicate literal for a field of the given
// type code and declared length. Character fields whose value parses fully as
// a number are zero-padded to the declared length, because numeric-looking
// character fields in SAP are fixed-width codes (material numbers, cost
// centers). The result is enclosed in single quotes; embedded quotes are not
// escaped, which is a known limitation of the OPTIONS text contract.
func Format(value any, typeCode string, length int) string {
	text := stringify(value)

	if typeCode == TypeChar {
		if canonical, ok := canonicalNumber(text); ok {
			text = zeroPad(canonical, length)
		}
	}

	return "'" + text + "'"
}

// Decode converts one raw result cell into a typed value based on the field's
// type code. Integer and float/packed cells that fail to parse fall back to
// the right-trimmed raw text instead of failing the row, so a single locale
// or format anomaly never aborts a query. Unknown type codes decode as
// right-trimmed text.
func Decode(raw string, typeCode string) any {
	trimmed := strings.TrimRightFunc(raw, unicode.IsSpace)

	switch typeCode {
	case TypeInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(trimmed), 10, 64); err == nil {
			return n
		}
		return trimmed
	case TypeFloat, TypePacked:
		if f, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64); err == nil {
			return f
		}
		return trimmed
	default:
		return trimmed
	}
}

// canonicalNumber reports whether text parses fully as an integer or float
// and returns the number's canonical rendering.
func canonicalNumber(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64), true
	}
	return "", false
}

func zeroPad(text string, length int) string {
	if len(text) >= length {
		return text
	}
	return strings.Repeat("0", length-len(text)) + text
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
