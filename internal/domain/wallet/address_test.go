package wallet

import "testing"

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+257 79 00 11 22", "79001122"},
		{"25779001122", "79001122"},
		{"79001122", "79001122"},
		{"  257-79-00-11-22 ", "79001122"},
		{"2579001122", "2579001122"}, // only 10 digits, prefix kept
		{"", ""},
		{"abc", ""},
	}

	for _, tc := range cases {
		if got := NormalizeAddress(tc.in); got != tc.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
