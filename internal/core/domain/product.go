package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNameRequired = errors.New("product name is required")
	ErrPriceNegative       = errors.New("price cannot be negative")
	ErrDiscountInvalid     = errors.New("discount price must be between 0 and the price")
	ErrStockNegative       = errors.New("stock cannot be negative")
)

// Product is an item sold by a store. Prices are in won.
type Product struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	ProductName   string    `json:"product_name"`
	Price         int64     `json:"price"`
	DiscountPrice *int64    `json:"discount_price,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Description   string    `json:"description,omitempty"`
	Stock         int       `json:"stock"`
	IsAvailable   bool      `json:"is_available"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewProduct validates and creates an available product.
func NewProduct(storeID, name string, price int64, discount *int64, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	if price < 0 {
		return nil, ErrPriceNegative
	}
	if discount != nil && (*discount < 0 || *discount >= price) {
		return nil, ErrDiscountInvalid
	}
	if stock < 0 {
		return nil, ErrStockNegative
	}

	return &Product{
		ID:            "prd_" + uuid.New().String()[:8],
		StoreID:       storeID,
		ProductName:   name,
		Price:         price,
		DiscountPrice: discount,
		Stock:         stock,
		IsAvailable:   true,
		CreatedAt:     time.Now(),
	}, nil
}

// EffectivePrice is the discount price when set, otherwise the list price.
func (p Product) EffectivePrice() int64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
