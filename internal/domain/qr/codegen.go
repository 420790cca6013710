package qr

import (
	"crypto/rand"
	"fmt"
	"time"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const (
	minCodeLen = 16
	maxCodeLen = 100
)

// randomCode returns n characters drawn from the url-safe alphabet using
// crypto/rand.
func randomCode(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// GenerateCode produces a token code: QR_<unix>_<16 random chars>. The
// timestamp keeps codes roughly sortable in ops tooling; uniqueness comes
// from the random tail plus the database unique constraint.
func GenerateCode() string {
	return fmt.Sprintf("QR_%d_%s", time.Now().Unix(), randomCode(16))
}

// ValidateFormat is the structural fast-fail filter run before any storage
// lookup: length bounds and the url-safe character set.
func ValidateFormat(code string) bool {
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return false
	}
	for _, ch := range code {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_':
		default:
			return false
		}
	}
	return true
}
