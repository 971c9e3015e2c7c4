package sapval

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		typeCode string
		length   int
		expected string
	}{
		{"numeric char is zero padded", "123", TypeChar, 7, "'0000123'"},
		{"float char is zero padded", "123.45", TypeChar, 7, "'0123.45'"},
		{"non numeric char unchanged", "ABC", TypeChar, 7, "'ABC'"},
		{"integer value", 123, TypeInteger, 7, "'123'"},
		{"float value", 123.45, TypeFloat, 7, "'123.45'"},
		{"packed value", 123.45, TypePacked, 7, "'123.45'"},
		{"char longer than length", "123456789", TypeChar, 7, "'123456789'"},
		{"int64 char zero padded", int64(42), TypeChar, 4, "'0042'"},
		{"empty char", "", TypeChar, 4, "''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.value, tt.typeCode, tt.length)
			if result != tt.expected {
				t.Errorf("Format(%v, %q, %d) = %q, want %q", tt.value, tt.typeCode, tt.length, result, tt.expected)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		typeCode string
		expected any
	}{
		{"integer", "123", TypeInteger, int64(123)},
		{"integer with leading zeros", "0123", TypeInteger, int64(123)},
		{"float", "123.45", TypeFloat, 123.45},
		{"packed", "123.45", TypePacked, 123.45},
		{"malformed float falls back to text", "12,45", TypeFloat, "12,45"},
		{"malformed integer falls back to text", "12X", TypeInteger, "12X"},
		{"char trims trailing whitespace", "ABC    ", TypeChar, "ABC"},
		{"char keeps leading whitespace", "  ABC", TypeChar, "  ABC"},
		{"unknown type code passes through", "ABC  ", "D", "ABC"},
		{"empty cell", "", TypeChar, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode(tt.raw, tt.typeCode)
			if result != tt.expected {
				t.Errorf("Decode(%q, %q) = %v (%T), want %v (%T)", tt.raw, tt.typeCode, result, result, tt.expected, tt.expected)
			}
		})
	}
}

func TestDecodeFormatRoundTrip(t *testing.T) {
	if got := Decode("456", TypeInteger); got != int64(456) {
		t.Errorf("integer round trip = %v, want 456", got)
	}
	if got := Decode("3.25", TypeFloat); got != 3.25 {
		t.Errorf("float round trip = %v, want 3.25", got)
	}
}
