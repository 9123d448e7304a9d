package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a name into its lookup form: accents stripped, case folded,
// surrounding blanks trimmed and inner whitespace collapsed to single spaces.
// "  Ibuprofène " and "IBUPROFENE" share the same key.
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	// Transformers keep state, a fresh chain per call keeps Normalize safe for concurrent use
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}
