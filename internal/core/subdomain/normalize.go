package subdomain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MaxLength is the longest slug that will be produced.
	MaxLength = 50

	// DefaultSlug replaces names that normalize to nothing.
	DefaultSlug = "store"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// IsValid reports whether s is non-empty, made of hyphen-separated runs of
// [a-z0-9], and at most MaxLength bytes long.
func IsValid(s string) bool {
	return len(s) <= MaxLength && slugPattern.MatchString(s)
}

// Normalize reduces s to a valid slug.
//
// The steps are applied in order:
//   - lowercase the whole string
//   - whitespace runs become a single hyphen
//   - characters outside [a-z0-9-] are removed
//   - hyphen runs collapse to one hyphen
//   - leading and trailing hyphens are trimmed
//   - an empty result becomes DefaultSlug
//   - the result is cut to MaxLength and trailing hyphens trimmed again
//
// Truncation is not word-boundary aware.
//
// Example:
//
//	Normalize("Tteokbokki   Nara!") // returns "tteokbokki-nara"
//	Normalize("   ")                // returns "store"
func Normalize(s string) string {
	// Lowercasing comes first: some non-ASCII runes (KELVIN SIGN) fold to
	// ASCII letters and must survive filtering.
	lowered := cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(lowered))

	pendingHyphen := false
	for _, r := range lowered {
		switch {
		case unicode.IsSpace(r) || r == '-':
			// Leading hyphens are never emitted.
			pendingHyphen = b.Len() > 0
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
		}
		// All other characters are dropped without affecting hyphen runs.
	}

	slug := b.String()
	if slug == "" {
		return DefaultSlug
	}
	if len(slug) > MaxLength {
		slug = strings.TrimRight(slug[:MaxLength], "-")
	}
	return slug
}
