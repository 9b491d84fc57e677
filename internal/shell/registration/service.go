// Package registration registers stores and assigns their subdomains.
// This is part of the Imperative Shell - it loads the taken subdomains from the
// store and calls the pure derivation pipeline in core/subdomain.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/core/subdomain"
	"github.com/marketsphere/marketsphere/internal/shell/store"
)

// =============================================================================
// Service Errors
// =============================================================================

var (
	// ErrMarketNotFound is returned when the store's market does not exist.
	ErrMarketNotFound = errors.New("market not found")

	// ErrSubdomainExhausted is returned when every attempt lost the race for
	// its derived subdomain.
	ErrSubdomainExhausted = errors.New("could not assign a unique subdomain, try a different name")
)

// DefaultMaxAttempts bounds the derive-and-insert loop.
const DefaultMaxAttempts = 3

// =============================================================================
// Registrar
// =============================================================================

// Config holds registration settings.
type Config struct {
	// MaxAttempts is the number of derive-and-insert transactions tried
	// before giving up. Zero means DefaultMaxAttempts.
	MaxAttempts int

	// AutoApprove registers stores as APPROVED instead of PENDING.
	AutoApprove bool

	// RootDomain is the apex used for full domains. Empty means
	// subdomain.RootDomain.
	RootDomain string
}

// Registrar assigns subdomains and persists new stores.
type Registrar struct {
	store  store.Store
	config Config
	logger *slog.Logger
}

// NewRegistrar creates a new registrar.
func NewRegistrar(s store.Store, cfg Config, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RootDomain == "" {
		cfg.RootDomain = subdomain.RootDomain
	}
	return &Registrar{
		store:  s,
		config: cfg,
		logger: logger,
	}
}

// =============================================================================
// Register Request/Result
// =============================================================================

// RegisterParams contains the input for registering a store.
type RegisterParams struct {
	domain.StoreParams

	// Approved registers the store as APPROVED regardless of AutoApprove.
	// Used by seeding.
	Approved bool
}

// Result contains the registered store and its public hostname.
type Result struct {
	Store      *domain.Store
	Market     *domain.Market
	FullDomain string
}

// Preview is a derived subdomain that has not been persisted.
type Preview struct {
	Subdomain  string
	FullDomain string
}

// =============================================================================
// Register
// =============================================================================

// Register validates the store, derives a subdomain unique within its market
// and inserts it.
//
// The algorithm:
// 1. Load the market
// 2. Validate the merchant-entered fields
// 3. In one transaction: record a new owner as a merchant, read the market's
// subdomains, derive a unique slug and insert
// 4. If a concurrent registration took the slug first, retry with a fresh set
func (r *Registrar) Register(ctx context.Context, params RegisterParams) (*Result, error) {
	market, err := r.store.GetMarket(ctx, params.MarketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, params.MarketID)
		}
		return nil, fmt.Errorf("failed to load market: %w", err)
	}

	st, err := domain.NewStore(params.StoreParams)
	if err != nil {
		return nil, err
	}
	if params.Approved || r.config.AutoApprove {
		st.ApprovalStatus = domain.ApprovalApproved
	}

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := r.store.WithTx(ctx, func(tx store.Store) error {
			if err := ensureMerchant(ctx, tx, st.OwnerID); err != nil {
				return err
			}

			taken, err := tx.ListSubdomains(ctx, market.ID)
			if err != nil {
				return err
			}
			st.Subdomain = subdomain.DeriveUniqueSlug(st.StoreName, subdomain.NewSet(taken...))

			return tx.CreateStore(ctx, st)
		})
		if err == nil {
			r.logger.Info("store registered",
				"store_id", st.ID,
				"market_id", market.ID,
				"subdomain", st.Subdomain,
				"attempt", attempt,
			)
			return &Result{
				Store:      st,
				Market:     market,
				FullDomain: subdomain.ComposeHost(st.Subdomain, market.SubdomainPrefix, r.config.RootDomain),
			}, nil
		}
		if !errors.Is(err, store.ErrDuplicateSubdomain) {
			return nil, fmt.Errorf("failed to register store: %w", err)
		}

		r.logger.Warn("subdomain taken concurrently, retrying",
			"market_id", market.ID,
			"subdomain", st.Subdomain,
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
		)
	}

	return nil, fmt.Errorf("%w: %q after %d attempts", ErrSubdomainExhausted, st.StoreName, r.config.MaxAttempts)
}

// ensureMerchant records the owner locally as a merchant. Existing users keep
// their role.
func ensureMerchant(ctx context.Context, tx store.Store, userID string) error {
	_, err := tx.GetUser(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return tx.UpsertUser(ctx, &domain.User{ID: userID, Role: domain.RoleMerchant})
}

// =============================================================================
// Preview
// =============================================================================

// Preview derives the subdomain a store name would receive in the market now.
// Nothing is reserved; a later Register may receive a different suffix.
func (r *Registrar) Preview(ctx context.Context, storeName, marketID string) (*Preview, error) {
	market, err := r.store.GetMarket(ctx, marketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, marketID)
		}
		return nil, fmt.Errorf("failed to load market: %w", err)
	}

	taken, err := r.store.ListSubdomains(ctx, market.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subdomains: %w", err)
	}

	slug := subdomain.DeriveUniqueSlug(storeName, subdomain.NewSet(taken...))
	return &Preview{
		Subdomain:  slug,
		FullDomain: subdomain.ComposeHost(slug, market.SubdomainPrefix, r.config.RootDomain),
	}, nil
}

// FullDomain formats the hostname of an existing store in market.
func (r *Registrar) FullDomain(st domain.Store, market domain.Market) string {
	return subdomain.ComposeHost(st.Subdomain, market.SubdomainPrefix, r.config.RootDomain)
}
