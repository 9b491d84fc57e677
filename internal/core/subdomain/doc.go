// Package subdomain derives store subdomains from human-entered store names.
//
// This package is part of the functional core: every function is pure, has no
// I/O and never fails. Any input, including the empty string or text in an
// unsupported script, yields a valid slug.
//
// # Pipeline
//
//   - Decompose: split a Hangul syllable into lead, vowel and trailing indexes
//   - Romanize: vocabulary substitution, then per-syllable romanization
//   - Normalize: reduce a string to the slug alphabet [a-z0-9-]
//   - Resolve: pick the first free candidate against the market's taken set
//   - ComposeFullDomain: {slug}.{marketPrefix}.marketsphere.com
//
// # Usage
//
// The registration service reads the market's existing subdomains, derives a
// candidate and inserts the store in one transaction. The check is a
// best-effort pre-check: the UNIQUE(market_id, subdomain) constraint is the
// final arbiter and a violation is retried with a fresh set.
//
//	existing := subdomain.NewSet(taken...)
//	slug := subdomain.DeriveUniqueSlug("김밥천국", existing) // "kimbapchunguk"
//	host := subdomain.ComposeFullDomain(slug, "mangwon")
package subdomain
