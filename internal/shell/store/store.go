package store

import (
	"context"
	"time"

	"github.com/marketsphere/marketsphere/internal/core/dashboard"
	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/core/search"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for MarketSphere entities.
type Store interface {
	// User operations (records mirror the external auth provider)
	UpsertUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// Market operations
	CreateMarket(ctx context.Context, market *domain.Market) error
	GetMarket(ctx context.Context, id string) (*domain.Market, error)
	GetMarketByPrefix(ctx context.Context, prefix string) (*domain.Market, error)
	ListMarkets(ctx context.Context, opts ListOptions) ([]domain.Market, error)

	// Store operations
	CreateStore(ctx context.Context, store *domain.Store) error
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	GetStoreBySubdomain(ctx context.Context, marketID, subdomain string) (*domain.Store, error)
	ListStoresByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]domain.Store, error)
	// ListSubdomains returns every subdomain taken in the market.
	ListSubdomains(ctx context.Context, marketID string) ([]string, error)

	// Product operations
	CreateProduct(ctx context.Context, product *domain.Product) error
	ListProductsByStore(ctx context.Context, storeID string, opts ListOptions) ([]domain.Product, error)
	// CountProductsByStore ignores Limit and Offset.
	CountProductsByStore(ctx context.Context, storeID string, opts ListOptions) (int, error)
	SearchProducts(ctx context.Context, q SearchQuery) ([]search.Hit, error)

	// Favorite operations
	CreateFavorite(ctx context.Context, fav *domain.Favorite) error
	GetFavorite(ctx context.Context, id string) (*domain.Favorite, error)
	DeleteFavorite(ctx context.Context, id string) error
	ListFavoritesByUser(ctx context.Context, userID string) ([]domain.FavoriteStore, error)

	// Time sale operations
	CreateTimeSale(ctx context.Context, sale *domain.TimeSale) error
	ListTimeSalesByStore(ctx context.Context, storeID string) ([]domain.TimeSale, error)

	// MarketStats aggregates a market's stores and the time sales created
	// since the given instant; running sales are counted at now.
	MarketStats(ctx context.Context, marketID string, since, now time.Time) (*dashboard.Stats, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int
	// AvailableOnly restricts product lists to available products.
	AvailableOnly bool
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// SearchQuery selects available products of approved stores whose name
// contains Text.
type SearchQuery struct {
	Text     string
	MarketID string // optional
	SortBy   search.SortBy
	Limit    int
}
