// Package storefront maps public hostnames back to stores.
// Pure functions - no I/O.
package storefront

import (
	"strings"

	"github.com/marketsphere/marketsphere/internal/core/subdomain"
)

// StoreHost identifies a store by its two hostname labels.
type StoreHost struct {
	Subdomain    string
	MarketPrefix string
}

// HostParser extracts store info from a hostname.
type HostParser struct {
	RootDomain string // e.g., "marketsphere.com"
}

// Parse is the inverse of subdomain.ComposeHost.
// "kimbap.mangwon.marketsphere.com" → {kimbap, mangwon}
// "kimbap.mangwon.marketsphere.com:8080" → {kimbap, mangwon}
// Returns false unless exactly two valid slug labels precede the root domain.
func (p HostParser) Parse(hostname string) (StoreHost, bool) {
	if hostname == "" {
		return StoreHost{}, false
	}

	host := strings.ToLower(stripPort(hostname))
	suffix := "." + strings.ToLower(p.RootDomain)
	if !strings.HasSuffix(host, suffix) {
		return StoreHost{}, false
	}

	labels := strings.Split(strings.TrimSuffix(host, suffix), ".")
	if len(labels) != 2 {
		return StoreHost{}, false
	}
	if !subdomain.IsValid(labels[0]) || !subdomain.IsValid(labels[1]) {
		return StoreHost{}, false
	}

	return StoreHost{Subdomain: labels[0], MarketPrefix: labels[1]}, true
}

// stripPort removes a trailing :port if everything after the last colon is
// digits.
func stripPort(hostname string) string {
	idx := strings.LastIndex(hostname, ":")
	if idx == -1 {
		return hostname
	}
	port := hostname[idx+1:]
	if port == "" {
		return hostname
	}
	for _, c := range port {
		if c < '0' || c > '9' {
			return hostname
		}
	}
	return hostname[:idx]
}
