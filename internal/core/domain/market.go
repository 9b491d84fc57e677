// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketsphere/marketsphere/internal/core/subdomain"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrMarketNameRequired   = errors.New("market name is required")
	ErrMarketPrefixRequired = errors.New("subdomain prefix is required")
	ErrMarketPrefixInvalid  = errors.New("subdomain prefix must be lowercase letters, digits and single hyphens")
)

// =============================================================================
// Market
// =============================================================================

// Market is a traditional market run by a merchant association.
// SubdomainPrefix is the middle label of every store domain in the market.
type Market struct {
	ID              string    `json:"id"`
	Name            string    `json:"market_name"`
	SubdomainPrefix string    `json:"subdomain_prefix"`
	Address         string    `json:"address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMarket creates a market after validating its name and prefix.
func NewMarket(name, prefix, address string) (*Market, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMarketNameRequired
	}
	if err := ValidateMarketPrefix(prefix); err != nil {
		return nil, err
	}

	return &Market{
		ID:              "mkt_" + uuid.New().String()[:8],
		Name:            name,
		SubdomainPrefix: prefix,
		Address:         strings.TrimSpace(address),
		CreatedAt:       time.Now(),
	}, nil
}

// ValidateMarketPrefix checks that prefix can be used as a DNS label.
func ValidateMarketPrefix(prefix string) error {
	if prefix == "" {
		return ErrMarketPrefixRequired
	}
	if !subdomain.IsValid(prefix) {
		return ErrMarketPrefixInvalid
	}
	return nil
}

// FullDomain returns the public hostname of a store in this market.
func (m Market) FullDomain(storeSubdomain string) string {
	return subdomain.ComposeFullDomain(storeSubdomain, m.SubdomainPrefix)
}
