package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite records a customer's regular store.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StoreID   string    `json:"store_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFavorite creates a favorite for userID and storeID.
func NewFavorite(userID, storeID string) *Favorite {
	return &Favorite{
		ID:        "fav_" + uuid.New().String()[:8],
		UserID:    userID,
		StoreID:   storeID,
		CreatedAt: time.Now(),
	}
}

// FavoriteStore is a favorite joined with the store summary shown in lists.
type FavoriteStore struct {
	Favorite
	StoreName     string   `json:"store_name"`
	Category      Category `json:"category"`
	Location      string   `json:"location,omitempty"`
	Phone         string   `json:"phone"`
	PhotoURL      string   `json:"photo_url,omitempty"`
	MarketName    string   `json:"market_name"`
	ProductsCount int      `json:"products_count"`
}
