package subdomain

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Resolve Tests
// =============================================================================

func TestResolve_Free(t *testing.T) {
	existing := NewSet("kimbap1", "tteokbokki")
	assert.Equal(t, "kimbapchunguk", Resolve("kimbapchunguk", existing))
}

func TestResolve_FirstSuffixIsTwo(t *testing.T) {
	existing := NewSet("kimbapchunguk")
	assert.Equal(t, "kimbapchunguk2", Resolve("kimbapchunguk", existing))
}

func TestResolve_IncrementsUntilFree(t *testing.T) {
	existing := NewSet("kimbapchunguk", "kimbapchunguk2", "kimbapchunguk3")
	assert.Equal(t, "kimbapchunguk4", Resolve("kimbapchunguk", existing))
}

func TestResolve_GapIsNotFilledPastFirstFree(t *testing.T) {
	existing := NewSet("store", "store3")
	assert.Equal(t, "store2", Resolve("store", existing))
}

func TestResolve_NilSet(t *testing.T) {
	assert.Equal(t, "store", Resolve("store", nil))
}

func TestResolve_LongCandidateStaysWithinLimit(t *testing.T) {
	base := strings.Repeat("a", MaxLength)
	result := Resolve(base, NewSet(base))
	assert.Equal(t, strings.Repeat("a", MaxLength-1)+"2", result)
	assert.True(t, IsValid(result))
}

func TestResolve_CutCandidateCanRepeatSlug(t *testing.T) {
	base := strings.Repeat("a", MaxLength-2) + "1x"
	repeated := strings.Repeat("a", MaxLength-2) + "12"

	assert.Equal(t, repeated, withSuffix(base, "2"))
	assert.Equal(t, repeated, withSuffix(base, "12"))

	result := Resolve(base, NewSet(base, repeated))
	assert.Equal(t, strings.Repeat("a", MaxLength-2)+"13", result)
	assert.True(t, IsValid(result))
}

func TestResolve_FirstAvailableSuffix(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		n := rng.Intn(20)
		existing := NewSet("market")
		for k := 2; k <= n+1; k++ {
			existing.Add("market" + strconv.Itoa(k))
		}
		assert.Equal(t, "market"+strconv.Itoa(n+2), Resolve("market", existing))
	}
}

// =============================================================================
// Pipeline Tests
// =============================================================================

func TestDeriveUniqueSlug_Scenarios(t *testing.T) {
	assert.Equal(t, "kimbapchunguk", DeriveUniqueSlug("김밥천국", NewSet()))
	assert.Equal(t, "kimbapchunguk2", DeriveUniqueSlug("김밥천국", NewSet("kimbapchunguk")))
	assert.Equal(t, "kimbapchunguk4", DeriveUniqueSlug("김밥천국",
		NewSet("kimbapchunguk", "kimbapchunguk2", "kimbapchunguk3")))
}

func TestDeriveUniqueSlug_NeverInExisting(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	existing := NewSet()
	for i := 0; i < 500; i++ {
		name := randomName(rng)
		slug := DeriveUniqueSlug(name, existing)
		assert.False(t, existing.Contains(slug))
		assert.True(t, IsValid(slug), "slug %q", slug)
		existing.Add(slug)
	}
}

func TestDeriveUniqueSlug_BaseWhenFree(t *testing.T) {
	base := Slugify("떡볶이 나라")
	assert.Equal(t, "tteokbokki-nara", base)
	assert.Equal(t, base, DeriveUniqueSlug("떡볶이 나라", NewSet("other")))
}

func TestDeriveUniqueSlug_EmptyNameFallsBackToStore(t *testing.T) {
	assert.Equal(t, "store", DeriveUniqueSlug("", nil))
	assert.Equal(t, "store2", DeriveUniqueSlug("!!!", NewSet("store")))
}

// =============================================================================
// Table-Driven Tests
// =============================================================================

func TestSlugify_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"vocabulary", "김밥천국", "kimbapchunguk"},
		{"phonetic tail", "떡볶이 나라", "tteokbokki-nara"},
		{"grandma", "할매 분식", "grandma-bunsik"},
		{"mixed script", "Kim밥", "kimbap"},
		{"mixed words", "Cafe 커피", "cafe-coffee"},
		{"punctuation", "김밥@천국!", "kimbapchunguk"},
		{"digits", "분식#1", "bunsik1"},
		{"empty", "", "store"},
		{"blank", "   ", "store"},
		{"upper", "KIMBAP", "kimbap"},
		{"spaces", "김밥 천국", "kimbap-chunguk"},
		{"multiple spaces", "할매   분식", "grandma-bunsik"},
		{"hyphen run", "김밥---천국", "kimbap-chunguk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugify_LongNameWithinLimit(t *testing.T) {
	result := Slugify("아주긴상점이름입니다정말로긴이름아주아주긴이름")
	assert.LessOrEqual(t, len(result), MaxLength)
	assert.True(t, IsValid(result))
}

// =============================================================================
// Compose Tests
// =============================================================================

func TestComposeFullDomain(t *testing.T) {
	assert.Equal(t, "kimbapchunguk.mangwon.marketsphere.com", ComposeFullDomain("kimbapchunguk", "mangwon"))
	assert.Equal(t, "tteokbokki.gwangjang.marketsphere.com", ComposeFullDomain("tteokbokki", "gwangjang"))
}

func TestComposeHost_CustomRoot(t *testing.T) {
	assert.Equal(t, "kimbap.mangwon.localhost", ComposeHost("kimbap", "mangwon", "localhost"))
}
