package search

import (
	"testing"

	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(storeID, productID string, price int64) Hit {
	return Hit{
		Product: domain.Product{ID: productID, StoreID: storeID, Price: price},
		Store:   StoreSummary{ID: storeID, StoreName: "store " + storeID},
	}
}

// =============================================================================
// Aggregate Tests
// =============================================================================

func TestAggregate_Empty(t *testing.T) {
	result := Aggregate(nil, SortRelevance)
	assert.Empty(t, result.Groups)
	assert.NotNil(t, result.Groups)
	assert.Equal(t, Stats{}, result.Stats)
}

func TestAggregate_GroupsByStoreInFirstSeenOrder(t *testing.T) {
	hits := []Hit{
		hit("b", "p1", 3000),
		hit("a", "p2", 1000),
		hit("b", "p3", 5000),
	}
	result := Aggregate(hits, SortRelevance)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, "b", result.Groups[0].Store.ID)
	assert.Len(t, result.Groups[0].Products, 2)
	assert.Equal(t, int64(3000), result.Groups[0].MinPrice)
	assert.Equal(t, int64(5000), result.Groups[0].MaxPrice)
	assert.Equal(t, "a", result.Groups[1].Store.ID)
}

func TestAggregate_PriceAsc(t *testing.T) {
	hits := []Hit{
		hit("a", "p1", 4000),
		hit("b", "p2", 2000),
		hit("c", "p3", 3000),
	}
	result := Aggregate(hits, SortPriceAsc)

	ids := []string{result.Groups[0].Store.ID, result.Groups[1].Store.ID, result.Groups[2].Store.ID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestAggregate_PriceDescUsesMaxPrice(t *testing.T) {
	hits := []Hit{
		hit("a", "p1", 1000),
		hit("a", "p2", 9000),
		hit("b", "p3", 5000),
	}
	result := Aggregate(hits, SortPriceDesc)
	assert.Equal(t, "a", result.Groups[0].Store.ID)
	assert.Equal(t, "b", result.Groups[1].Store.ID)
}

func TestAggregate_Stats(t *testing.T) {
	hits := []Hit{
		hit("a", "p1", 1000),
		hit("a", "p2", 2000),
		hit("b", "p3", 2500),
	}
	stats := Aggregate(hits, SortNewest).Stats

	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 2, stats.TotalStores)
	assert.Equal(t, int64(1000), stats.MinPrice)
	assert.Equal(t, int64(2500), stats.MaxPrice)
	// 5500 / 3 = 1833.33
	assert.Equal(t, int64(1833), stats.AvgPrice)
}

func TestAggregate_AvgRoundsHalfUp(t *testing.T) {
	stats := Aggregate([]Hit{hit("a", "p1", 1), hit("a", "p2", 2)}, SortRelevance).Stats
	assert.Equal(t, int64(2), stats.AvgPrice)
}

func TestParseSortBy(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSortBy("price_asc"))
	assert.Equal(t, SortPriceDesc, ParseSortBy("price_desc"))
	assert.Equal(t, SortNewest, ParseSortBy("newest"))
	assert.Equal(t, SortRelevance, ParseSortBy(""))
	assert.Equal(t, SortRelevance, ParseSortBy("cheapest"))
}
