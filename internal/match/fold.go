package match

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold returns the comparison key for case-insensitive equality: trimmed,
// NFC-normalized and case-folded. A new Caser is built per call because
// Casers carry state and must not be shared between goroutines.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

func equalFold(a, b string) bool {
	fa, fb := fold(a), fold(b)
	return fa != "" && fa == fb
}

// containsEither reports whether one folded name contains the other. Empty
// names never match.
func containsEither(a, b string) bool {
	fa, fb := fold(a), fold(b)
	if fa == "" || fb == "" {
		return false
	}
	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}
