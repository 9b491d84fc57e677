package api

import (
	"time"

	"github.com/marketsphere/marketsphere/internal/core/dashboard"
	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/core/search"
)

// =============================================================================
// Request Types
// =============================================================================

// CreateMarketRequest is the request body for creating a market.
type CreateMarketRequest struct {
	MarketName      string `json:"market_name"`
	SubdomainPrefix string `json:"subdomain_prefix"`
	Address         string `json:"address,omitempty"`
}

// RegisterStoreRequest is the request body for registering a store.
type RegisterStoreRequest struct {
	StoreName   string `json:"store_name"`
	Category    string `json:"category"`
	MarketID    string `json:"market_id"`
	Location    string `json:"location,omitempty"`
	Phone       string `json:"phone"`
	Hours       string `json:"hours,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	StoreID       string `json:"store_id"`
	ProductName   string `json:"product_name"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discount_price,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Description   string `json:"description,omitempty"`
	Stock         int    `json:"stock"`
}

// CreateTimeSaleRequest is the request body for starting a time sale.
// Times are RFC 3339.
type CreateTimeSaleRequest struct {
	StoreID      string    `json:"store_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	DiscountRate int       `json:"discount_rate"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// CreateFavoriteRequest is the request body for adding a favorite.
type CreateFavoriteRequest struct {
	StoreID string `json:"store_id"`
}

// =============================================================================
// Response Types
// =============================================================================

// MarketResponse is the response for market operations.
type MarketResponse struct {
	ID              string    `json:"id"`
	MarketName      string    `json:"market_name"`
	SubdomainPrefix string    `json:"subdomain_prefix"`
	Address         string    `json:"address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListMarketsResponse is the response for listing markets.
type ListMarketsResponse struct {
	Markets []MarketResponse `json:"markets"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// StoreResponse is the response for store operations.
type StoreResponse struct {
	ID             string    `json:"id"`
	StoreName      string    `json:"store_name"`
	Subdomain      string    `json:"subdomain"`
	FullDomain     string    `json:"full_domain"`
	MarketID       string    `json:"market_id"`
	MarketName     string    `json:"market_name"`
	Category       string    `json:"category"`
	Location       string    `json:"location,omitempty"`
	Phone          string    `json:"phone"`
	Hours          string    `json:"hours,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	Description    string    `json:"description,omitempty"`
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegisterStoreResponse is the response for a store registration.
type RegisterStoreResponse struct {
	Store          StoreResponse `json:"store"`
	Subdomain      string        `json:"subdomain"`
	FullDomain     string        `json:"full_domain"`
	ApprovalStatus string        `json:"approval_status"`
	Message        string        `json:"message"`
}

// ListStoresResponse is the response for listing the caller's stores.
type ListStoresResponse struct {
	Stores []StoreResponse `json:"stores"`
	Total  int             `json:"total"`
}

// SubdomainPreviewResponse is the response for a subdomain preview.
type SubdomainPreviewResponse struct {
	StoreName  string `json:"store_name"`
	Subdomain  string `json:"subdomain"`
	FullDomain string `json:"full_domain"`
}

// StoreProfileResponse is the public profile of an approved store.
type StoreProfileResponse struct {
	Store    StoreResponse    `json:"store"`
	Products []domain.Product `json:"products"`
}

// ListProductsResponse is the response for listing a store's products.
type ListProductsResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListTimeSalesResponse is the response for listing a store's time sales.
type ListTimeSalesResponse struct {
	TimeSales []domain.TimeSale `json:"time_sales"`
	Total     int               `json:"total"`
}

// MarketDashboardResponse is the association's overview of one market.
type MarketDashboardResponse struct {
	Market MarketResponse `json:"market"`
	dashboard.Dashboard
}

// SearchResponse is the response for a product search.
type SearchResponse struct {
	Query  string         `json:"query"`
	SortBy string         `json:"sort_by"`
	Groups []search.Group `json:"results"`
	Stats  search.Stats   `json:"stats"`
}

// ListFavoritesResponse is the response for listing favorites.
type ListFavoritesResponse struct {
	Favorites []domain.FavoriteStore `json:"favorites"`
	Total     int                    `json:"total"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}
