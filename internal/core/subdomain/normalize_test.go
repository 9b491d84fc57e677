package subdomain

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Normalize Tests
// =============================================================================

func TestNormalize_Lowercase(t *testing.T) {
	assert.Equal(t, "kimbap", Normalize("KIMBAP"))
	assert.Equal(t, "cafe", Normalize("CaFe"))
}

func TestNormalize_WhitespaceToHyphen(t *testing.T) {
	assert.Equal(t, "kimbap-chunguk", Normalize("kimbap chunguk"))
	assert.Equal(t, "grandma-bunsik", Normalize("grandma \t\n bunsik"))
}

func TestNormalize_CollapsesHyphens(t *testing.T) {
	assert.Equal(t, "kimbap-chunguk", Normalize("kimbap---chunguk"))
	assert.Equal(t, "a-b", Normalize("a-@-b"))
	assert.Equal(t, "a-b", Normalize("a - b"))
}

func TestNormalize_TrimsHyphens(t *testing.T) {
	assert.Equal(t, "trim-me", Normalize(" trim me "))
	assert.Equal(t, "x", Normalize("--x--"))
}

func TestNormalize_StripsPunctuationWithoutHyphen(t *testing.T) {
	assert.Equal(t, "kimbapchunguk", Normalize("kimbap@chunguk!"))
}

func TestNormalize_DefaultWhenEmpty(t *testing.T) {
	assert.Equal(t, "store", Normalize(""))
	assert.Equal(t, "store", Normalize("   "))
	assert.Equal(t, "store", Normalize("!@#$%"))
	assert.Equal(t, "store", Normalize("---"))
	assert.Equal(t, "store", Normalize("日本"))
}

func TestNormalize_Truncates(t *testing.T) {
	result := Normalize(strings.Repeat("ab", 40))
	assert.Len(t, result, MaxLength)
	assert.Equal(t, strings.Repeat("ab", 25), result)
}

func TestNormalize_TruncationDropsTrailingHyphen(t *testing.T) {
	// The cut lands right after the hyphen.
	input := strings.Repeat("a", 49) + " bcd"
	result := Normalize(input)
	assert.Equal(t, strings.Repeat("a", 49), result)
	assert.True(t, IsValid(result))
}

func TestNormalize_FoldsToASCII(t *testing.T) {
	// KELVIN SIGN lowercases to ASCII k
	assert.Equal(t, "k", Normalize("\u212A"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"kimbapchunguk", "tteokbokki-nara", "store", "a-b-c", "123"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

// =============================================================================
// IsValid Tests
// =============================================================================

func TestIsValid(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"kimbap", true},
		{"kimbap-chunguk", true},
		{"store2", true},
		{"", false},
		{"-kimbap", false},
		{"kimbap-", false},
		{"kim--bap", false},
		{"Kimbap", false},
		{"kim bap", false},
		{strings.Repeat("a", 50), true},
		{strings.Repeat("a", 51), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValid(tt.input))
		})
	}
}

// =============================================================================
// Property Tests
// =============================================================================

var propertyAlphabet = []rune("가나다라마바사아자차카타파하김밥천국떡볶이 \t-_!@#.ABCxyz019é日🍙가")

func randomName(rng *rand.Rand) string {
	n := rng.Intn(60)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(propertyAlphabet[rng.Intn(len(propertyAlphabet))])
	}
	return b.String()
}

func TestSlugify_AlwaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		name := randomName(rng)
		slug := Slugify(name)
		if !IsValid(slug) {
			t.Fatalf("Slugify(%q) = %q is not a valid slug", name, slug)
		}
	}
}

func TestNormalize_IdempotentOnRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		once := Normalize(Romanize(randomName(rng)))
		assert.Equal(t, once, Normalize(once))
	}
}
