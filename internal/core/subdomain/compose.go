package subdomain

import "fmt"

// RootDomain is the apex every store domain lives under.
const RootDomain = "marketsphere.com"

// ComposeFullDomain formats the public hostname of a store.
// Pattern: {slug}.{marketPrefix}.marketsphere.com
//
// The value is always recomputed and never stored, so it follows a market
// prefix change.
//
// Example:
//
//	ComposeFullDomain("kimbapchunguk", "mangwon") // returns "kimbapchunguk.mangwon.marketsphere.com"
func ComposeFullDomain(slug, marketPrefix string) string {
	return ComposeHost(slug, marketPrefix, RootDomain)
}

// ComposeHost is ComposeFullDomain with an explicit root domain, used by
// deployments that serve storefronts under a different apex.
func ComposeHost(slug, marketPrefix, rootDomain string) string {
	return fmt.Sprintf("%s.%s.%s", slug, marketPrefix, rootDomain)
}
