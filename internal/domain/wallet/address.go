package wallet

import "strings"

// NormalizeAddress turns a phone number into a wallet address: digits only,
// with the 257 country prefix stripped when the number is long enough to
// carry one.
//
//	+257 79 00 11 22 -> 79001122
//	25779001122      -> 79001122
//	79001122         -> 79001122
func NormalizeAddress(phone string) string {
	raw := strings.TrimSpace(phone)

	var b strings.Builder
	for _, ch := range raw {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "257") && len(digits) >= 11 {
		digits = digits[3:]
	}

	return digits
}
