// Package validation contains input validation helpers shared by services and handlers.
package validation

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// CodeAlphabet excludes characters easy to misread on a projector (I, L, O, 0, 1).
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CheckInCodeLength is the fixed length of workshop check-in codes.
const CheckInCodeLength = 6

// GenerateCheckInCode returns a random check-in code drawn from CodeAlphabet.
func GenerateCheckInCode() (string, error) {
	buf := make([]byte, CheckInCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate check-in code: %w", err)
	}
	for i := range buf {
		buf[i] = CodeAlphabet[int(buf[i])%len(CodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCheckInCode trims whitespace and upper-cases user-entered codes so
// comparison against the stored code is case-insensitive.
func NormalizeCheckInCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCheckInCodeFormat reports whether the code has the expected shape.
// It does not verify the code against any workshop.
func ValidCheckInCodeFormat(code string) bool {
	if len(code) != CheckInCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(CodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
