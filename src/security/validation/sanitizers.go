// backend/src/security/validation/sanitizers.go
package validation

import (
	"strings"
	"unicode"
)

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character.
// This makes most spreadsheet software treat it as text. Plain signed numbers such as "-12.5"
// are left alone so exported P&L columns stay numeric.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) == 0 {
		return s
	}
	switch trimmed[0] {
	case '=', '@', '\t', '\r':
		return "'" + s
	case '+', '-':
		if isSignedNumber(trimmed) {
			return s
		}
		return "'" + s
	}
	return s
}

func isSignedNumber(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case i == 0 && (r == '+' || r == '-'):
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanCell normalizes one CSV cell: non-breaking spaces become spaces, unprintable runes
// such as BOMs and control bytes are dropped, and surrounding whitespace is trimmed.
func CleanCell(s string) string {
	return strings.TrimSpace(StripUnprintable(strings.ReplaceAll(s, "\u00a0", " ")))
}
