package subdomain

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Vocabulary
// =============================================================================

type vocabularyEntry struct {
	word      string
	romanized string
}

// vocabulary maps common market, food and location words to the romanization
// merchants expect. Phonetic decomposition of these words reads poorly
// (정육점 would become "jeongyukjeom").
var vocabulary = []vocabularyEntry{
	{"김밥", "kimbap"},
	{"천국", "chunguk"},
	{"떡볶이", "tteokbokki"},
	{"순대", "sundae"},
	{"국밥", "gukbap"},
	{"분식", "bunsik"},
	{"반찬", "banchan"},
	{"정육점", "butcher"},
	{"청과", "fruits"},
	{"수산", "seafood"},
	{"카페", "cafe"},
	{"커피", "coffee"},
	{"베이커리", "bakery"},
	{"빵", "bread"},
	{"슈퍼", "super"},
	{"마트", "mart"},
	{"할매", "grandma"},
	{"할머니", "grandma"},
	{"옛날", "oldschool"},
	{"전통", "traditional"},
	{"우리", "woori"},
	{"서울", "seoul"},
	{"망원", "mangwon"},
	{"광장", "gwangjang"},
	{"남대문", "namdaemun"},
	{"동대문", "dongdaemun"},
}

// vocabularyReplacer substitutes leftmost matches, preferring the longest
// word when two start at the same position. Words of equal length keep
// table order.
var vocabularyReplacer = newVocabularyReplacer(vocabulary)

func newVocabularyReplacer(entries []vocabularyEntry) *strings.Replacer {
	ordered := make([]vocabularyEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i].word) > utf8.RuneCountInString(ordered[j].word)
	})

	pairs := make([]string, 0, len(ordered)*2)
	for _, e := range ordered {
		pairs = append(pairs, e.word, e.romanized)
	}
	return strings.NewReplacer(pairs...)
}

// =============================================================================
// Romanization
// =============================================================================

// Romanize transliterates a store name into Latin script.
//
// Conjoining jamo sequences are first composed into syllables (NFC), known
// vocabulary words are substituted, and the remaining Hangul syllables are
// romanized one by one. Everything else passes through unchanged, so the
// result still needs Normalize before it is a slug.
//
// Example:
//
//	Romanize("김밥천국")    // returns "kimbapchunguk"
//	Romanize("떡볶이 나라") // returns "tteokbokki nara"
//	Romanize("Kim밥")      // returns "Kimbap"
func Romanize(name string) string {
	text := norm.NFC.String(strings.TrimSpace(name))
	text = vocabularyReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteString(Decompose(r).Romanized())
	}
	return b.String()
}
