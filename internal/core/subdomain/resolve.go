package subdomain

import "strconv"

// Set is the collection of subdomains already taken within one market.
type Set map[string]struct{}

// NewSet builds a Set from a list of slugs.
func NewSet(slugs ...string) Set {
	s := make(Set, len(slugs))
	for _, slug := range slugs {
		s[slug] = struct{}{}
	}
	return s
}

// Contains reports whether slug is taken. A nil Set contains nothing.
func (s Set) Contains(slug string) bool {
	_, ok := s[slug]
	return ok
}

// Add marks slug as taken.
func (s Set) Add(slug string) {
	s[slug] = struct{}{}
}

// Resolve returns candidate when it is free, otherwise the first of
// candidate2, candidate3, ... that is not in existing.
//
// When appending the counter would exceed MaxLength, the candidate is cut so
// the suffixed slug still fits. A cut candidate can then yield the same slug
// for two counters: "aaa1x" cut for "2" and for "12" both become "aaa12". The
// repeat is taken by then and is skipped, so the result is still never in
// existing, but counters are not guaranteed to appear in order.
//
// Example:
//
//	Resolve("kimbap", NewSet())                    // returns "kimbap"
//	Resolve("kimbap", NewSet("kimbap", "kimbap2")) // returns "kimbap3"
func Resolve(candidate string, existing Set) string {
	if !existing.Contains(candidate) {
		return candidate
	}
	for counter := 2; ; counter++ {
		next := withSuffix(candidate, strconv.Itoa(counter))
		if !existing.Contains(next) {
			return next
		}
	}
}

func withSuffix(base, suffix string) string {
	if len(base)+len(suffix) <= MaxLength {
		return base + suffix
	}
	cut := base[:MaxLength-len(suffix)]
	for len(cut) > 0 && cut[len(cut)-1] == '-' {
		cut = cut[:len(cut)-1]
	}
	return cut + suffix
}
