package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTimeSaleTitleRequired = errors.New("time sale title is required")
	ErrDiscountRateInvalid   = errors.New("discount rate must be between 1 and 99 percent")
	ErrTimeSaleWindowInvalid = errors.New("time sale must end after it starts")
)

// TimeSale is a limited-time discount a merchant runs on their store.
// DiscountRate is a whole percentage.
type TimeSale struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"store_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	DiscountRate int       `json:"discount_rate"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// TimeSaleParams holds the merchant-supplied fields of a time sale.
type TimeSaleParams struct {
	StoreID      string
	Title        string
	Description  string
	DiscountRate int
	StartTime    time.Time
	EndTime      time.Time
}

// NewTimeSale validates p and creates an active time sale.
func NewTimeSale(p TimeSaleParams) (*TimeSale, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrTimeSaleTitleRequired
	}
	if p.DiscountRate < 1 || p.DiscountRate > 99 {
		return nil, ErrDiscountRateInvalid
	}
	if p.StartTime.IsZero() || p.EndTime.IsZero() || !p.EndTime.After(p.StartTime) {
		return nil, ErrTimeSaleWindowInvalid
	}

	return &TimeSale{
		ID:           "tms_" + uuid.New().String()[:8],
		StoreID:      p.StoreID,
		Title:        title,
		Description:  strings.TrimSpace(p.Description),
		DiscountRate: p.DiscountRate,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}, nil
}

// IsRunning reports whether the sale is active and now falls inside its
// window, both ends included.
func (s TimeSale) IsRunning(now time.Time) bool {
	return s.IsActive && !now.Before(s.StartTime) && !now.After(s.EndTime)
}
