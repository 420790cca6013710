package qr

import (
	"strings"
	"testing"
)

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateCode()
		if !strings.HasPrefix(code, "QR_") {
			t.Fatalf("code missing QR_ prefix: %q", code)
		}
		if !ValidateFormat(code) {
			t.Fatalf("generated code fails its own format check: %q", code)
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}

func TestValidateFormat(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"QR_1700000000_abcDEF123456-_ab", true},
		{strings.Repeat("a", 16), true},
		{strings.Repeat("a", 100), true},
		{strings.Repeat("a", 101), false},
		{"short", false},
		{"", false},
		{"QR_1700000000_abc DEF123456", false}, // space
		{"QR_1700000000_abc$EF12345678", false},
	}

	for _, tc := range cases {
		if got := ValidateFormat(tc.code); got != tc.want {
			t.Errorf("ValidateFormat(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
