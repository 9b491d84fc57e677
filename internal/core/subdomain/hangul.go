package subdomain

// =============================================================================
// Hangul Syllable Decomposition
// =============================================================================

const (
	syllableFirst = 0xAC00
	syllableLast  = 0xD7A3

	trailingCount = 28
	vowelCount    = 21
	// syllables per lead consonant (vowelCount * trailingCount)
	leadStride = vowelCount * trailingCount
)

// Romanized symbols indexed by the arithmetic decomposition of a syllable.
// The trailing table uses representative final sounds; slot 0 means no
// trailing consonant.
var (
	leadSymbols = [19]string{
		"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s",
		"ss", "", "j", "jj", "ch", "k", "t", "p", "h",
	}
	vowelSymbols = [vowelCount]string{
		"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa",
		"wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
	}
	trailingSymbols = [trailingCount]string{
		"", "k", "k", "k", "n", "n", "n", "t", "l", "l",
		"l", "l", "l", "l", "l", "l", "m", "p", "p", "t",
		"t", "ng", "t", "t", "k", "t", "p", "t",
	}
)

// Syllable is the result of decomposing one rune.
// For runes outside the Hangul syllable block only Rune is meaningful.
type Syllable struct {
	Rune     rune
	Lead     int
	Vowel    int
	Trailing int // 0 when the syllable has no trailing consonant

	hangul bool
}

// IsHangul reports whether the rune was a precomposed Hangul syllable.
// A false value is the pass-through variant, not an error.
func (s Syllable) IsHangul() bool {
	return s.hangul
}

// Romanized returns lead+vowel+trailing symbols with no separator, or the
// original rune for pass-through syllables.
func (s Syllable) Romanized() string {
	if !s.hangul {
		return string(s.Rune)
	}
	return leadSymbols[s.Lead] + vowelSymbols[s.Vowel] + trailingSymbols[s.Trailing]
}

// IsHangulSyllable reports whether r lies in U+AC00..U+D7A3.
func IsHangulSyllable(r rune) bool {
	return r >= syllableFirst && r <= syllableLast
}

// Decompose splits r into its lead, vowel and trailing indexes.
//
// Example:
//
//	Decompose('밥') // Lead 7 (b), Vowel 0 (a), Trailing 17 (p)
//	Decompose('A')  // pass-through, IsHangul() == false
func Decompose(r rune) Syllable {
	if !IsHangulSyllable(r) {
		return Syllable{Rune: r}
	}
	index := int(r - syllableFirst)
	return Syllable{
		Rune:     r,
		Lead:     index / leadStride,
		Vowel:    (index % leadStride) / trailingCount,
		Trailing: index % trailingCount,
		hangul:   true,
	}
}
