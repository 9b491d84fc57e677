// Package seed loads markets and stores from a YAML file into the store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/shell/registration"
	"github.com/marketsphere/marketsphere/internal/shell/store"
)

// DefaultOwner owns seeded stores that do not name one.
const DefaultOwner = "seed-merchant"

// File is the seed document.
//
//	markets:
//	  - name: Gwangjang Market
//	    prefix: gwangjang
//	    stores:
//	      - name: 김밥천국
//	        category: FOOD
//	        phone: 02-123-4567
type File struct {
	Markets []Market `yaml:"markets"`
}

// Market is a seeded market and its stores.
type Market struct {
	Name    string  `yaml:"name"`
	Prefix  string  `yaml:"prefix"`
	Address string  `yaml:"address"`
	Stores  []Store `yaml:"stores"`
}

// Store is a seeded store. Stores are approved unless Pending is set.
type Store struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Phone       string `yaml:"phone"`
	Owner       string `yaml:"owner"`
	Location    string `yaml:"location"`
	Hours       string `yaml:"hours"`
	Description string `yaml:"description"`
	Pending     bool   `yaml:"pending"`
}

// Summary counts what Apply did.
type Summary struct {
	MarketsCreated int
	MarketsSkipped int
	StoresCreated  int
	StoresSkipped  int
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse parses a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, m := range f.Markets {
		if m.Prefix == "" {
			return nil, fmt.Errorf("market %d: prefix is required", i)
		}
	}
	return &f, nil
}

// Apply creates missing markets and registers their stores. Markets are
// matched on prefix and stores on owner, market and name, so applying the
// same file twice changes nothing.
func Apply(ctx context.Context, s store.Store, reg *registration.Registrar, f *File, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var sum Summary

	for _, m := range f.Markets {
		market, created, err := ensureMarket(ctx, s, m)
		if err != nil {
			return sum, err
		}
		if created {
			sum.MarketsCreated++
			logger.Info("seeded market", "market_id", market.ID, "subdomain_prefix", market.SubdomainPrefix)
		} else {
			sum.MarketsSkipped++
		}

		for _, st := range m.Stores {
			owner := st.Owner
			if owner == "" {
				owner = DefaultOwner
			}

			exists, err := storeExists(ctx, s, owner, market.ID, st.Name)
			if err != nil {
				return sum, err
			}
			if exists {
				sum.StoresSkipped++
				continue
			}

			res, err := reg.Register(ctx, registration.RegisterParams{
				StoreParams: domain.StoreParams{
					StoreName:   st.Name,
					MarketID:    market.ID,
					OwnerID:     owner,
					Category:    domain.Category(st.Category),
					Location:    st.Location,
					Phone:       st.Phone,
					Hours:       st.Hours,
					Description: st.Description,
				},
				Approved: !st.Pending,
			})
			if err != nil {
				return sum, fmt.Errorf("failed to seed store %q in %s: %w", st.Name, m.Prefix, err)
			}
			sum.StoresCreated++
			logger.Info("seeded store",
				"store_id", res.Store.ID,
				"subdomain", res.Store.Subdomain,
				"full_domain", res.FullDomain,
			)
		}
	}

	return sum, nil
}

func ensureMarket(ctx context.Context, s store.Store, m Market) (*domain.Market, bool, error) {
	existing, err := s.GetMarketByPrefix(ctx, m.Prefix)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up market %s: %w", m.Prefix, err)
	}

	market, err := domain.NewMarket(m.Name, m.Prefix, m.Address)
	if err != nil {
		return nil, false, fmt.Errorf("market %s: %w", m.Prefix, err)
	}
	if err := s.CreateMarket(ctx, market); err != nil {
		return nil, false, fmt.Errorf("failed to create market %s: %w", m.Prefix, err)
	}
	return market, true, nil
}

func storeExists(ctx context.Context, s store.Store, owner, marketID, name string) (bool, error) {
	opts := store.ListOptions{Limit: 1000}
	for {
		stores, err := s.ListStoresByOwner(ctx, owner, opts)
		if err != nil {
			return false, fmt.Errorf("failed to list stores of %s: %w", owner, err)
		}
		for _, st := range stores {
			if st.MarketID == marketID && st.StoreName == strings.TrimSpace(name) {
				return true, nil
			}
		}
		if len(stores) < opts.Limit {
			return false, nil
		}
		opts.Offset += opts.Limit
	}
}
