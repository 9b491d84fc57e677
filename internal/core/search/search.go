// Package search groups product search hits by store and computes price
// statistics. All functions are pure.
package search

import (
	"math"
	"sort"

	"github.com/marketsphere/marketsphere/internal/core/domain"
)

// ResultLimit caps the number of products a search returns.
const ResultLimit = 50

// =============================================================================
// Sort Order
// =============================================================================

type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortPriceAsc  SortBy = "price_asc"
	SortPriceDesc SortBy = "price_desc"
	SortNewest    SortBy = "newest"
)

// ParseSortBy maps a query value to a sort order, defaulting to relevance.
func ParseSortBy(s string) SortBy {
	switch SortBy(s) {
	case SortPriceAsc, SortPriceDesc, SortNewest:
		return SortBy(s)
	default:
		return SortRelevance
	}
}

// =============================================================================
// Types
// =============================================================================

// StoreSummary is the store information attached to each hit.
type StoreSummary struct {
	ID         string          `json:"id"`
	StoreName  string          `json:"store_name"`
	Category   domain.Category `json:"category"`
	Location   string          `json:"location,omitempty"`
	Phone      string          `json:"phone"`
	MarketName string          `json:"market_name"`
}

// Hit is one matching product together with its store.
type Hit struct {
	Product domain.Product
	Store   StoreSummary
}

// Group collects the hits of one store.
type Group struct {
	Store    StoreSummary     `json:"store"`
	Products []domain.Product `json:"products"`
	MinPrice int64            `json:"min_price"`
	MaxPrice int64            `json:"max_price"`
}

// Stats summarizes prices across all hits.
type Stats struct {
	TotalProducts int   `json:"total_products"`
	TotalStores   int   `json:"total_stores"`
	MinPrice      int64 `json:"min_price"`
	MaxPrice      int64 `json:"max_price"`
	AvgPrice      int64 `json:"avg_price"`
}

// Result is the aggregated search response.
type Result struct {
	Groups []Group `json:"results"`
	Stats  Stats   `json:"stats"`
}

// =============================================================================
// Aggregation
// =============================================================================

// Aggregate groups hits by store in first-seen order. For price sorts the
// groups are reordered: price_asc by each group's cheapest product,
// price_desc by each group's most expensive product. Other orders keep the
// order hits arrived in.
func Aggregate(hits []Hit, sortBy SortBy) Result {
	groups := make([]Group, 0)
	index := make(map[string]int)

	for _, h := range hits {
		i, ok := index[h.Store.ID]
		if !ok {
			i = len(groups)
			index[h.Store.ID] = i
			groups = append(groups, Group{
				Store:    h.Store,
				MinPrice: h.Product.Price,
				MaxPrice: h.Product.Price,
			})
		}
		g := &groups[i]
		g.Products = append(g.Products, h.Product)
		if h.Product.Price < g.MinPrice {
			g.MinPrice = h.Product.Price
		}
		if h.Product.Price > g.MaxPrice {
			g.MaxPrice = h.Product.Price
		}
	}

	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].MinPrice < groups[j].MinPrice })
	case SortPriceDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].MaxPrice > groups[j].MaxPrice })
	}

	return Result{
		Groups: groups,
		Stats:  computeStats(hits, len(groups)),
	}
}

func computeStats(hits []Hit, stores int) Stats {
	if len(hits) == 0 {
		return Stats{}
	}

	stats := Stats{
		TotalProducts: len(hits),
		TotalStores:   stores,
		MinPrice:      hits[0].Product.Price,
		MaxPrice:      hits[0].Product.Price,
	}
	var sum int64
	for _, h := range hits {
		p := h.Product.Price
		sum += p
		if p < stats.MinPrice {
			stats.MinPrice = p
		}
		if p > stats.MaxPrice {
			stats.MaxPrice = p
		}
	}
	stats.AvgPrice = int64(math.Round(float64(sum) / float64(len(hits))))
	return stats
}
