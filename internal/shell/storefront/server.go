// Package storefront serves public store profiles by hostname, so that
// {store}.{market}.{root} resolves to the store it was assigned to.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/core/storefront"
	"github.com/marketsphere/marketsphere/internal/core/subdomain"
	"github.com/marketsphere/marketsphere/internal/shell/store"
)

// Config holds storefront server configuration.
type Config struct {
	Address      string        // Listen address, e.g., "0.0.0.0:8081"
	RootDomain   string        // Apex the store hostnames live under
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout
	IdleTimeout  time.Duration // HTTP idle timeout
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Address:      "0.0.0.0:8081",
		RootDomain:   subdomain.RootDomain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StoreView is the public part of a store.
type StoreView struct {
	ID          string          `json:"id"`
	StoreName   string          `json:"store_name"`
	Subdomain   string          `json:"subdomain"`
	Category    domain.Category `json:"category"`
	Location    string          `json:"location,omitempty"`
	Phone       string          `json:"phone"`
	Hours       string          `json:"hours,omitempty"`
	PhotoURL    string          `json:"photo_url,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Profile is the document served for a store hostname.
type Profile struct {
	Store      StoreView        `json:"store"`
	MarketName string           `json:"market_name"`
	FullDomain string           `json:"full_domain"`
	Products   []domain.Product `json:"products"`
}

// Server is the HTTP server that resolves store hostnames.
type Server struct {
	store  store.Store
	cache  Cache
	parser storefront.HostParser
	router *mux.Router
	logger *slog.Logger
	config Config
}

// NewServer creates a new storefront server. A nil cache disables caching.
func NewServer(cfg Config, s store.Store, cache Cache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NoopCache{}
	}
	if cfg.RootDomain == "" {
		cfg.RootDomain = subdomain.RootDomain
	}

	srv := &Server{
		store:  s,
		cache:  cache,
		parser: storefront.HostParser{RootDomain: cfg.RootDomain},
		logger: logger,
		config: cfg,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", srv.serveHealth).Methods(http.MethodGet)
	r.Host("{store}.{market}."+cfg.RootDomain).
		Path("/").
		Methods(http.MethodGet, http.MethodHead).
		HandlerFunc(srv.serveStore)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.serveError(w, storefront.NewNotFoundError(r.Host))
	})
	srv.router = r

	return srv
}

// Start starts the storefront server (non-blocking).
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go func() {
		s.logger.Info("starting storefront server",
			"address", s.config.Address,
			"root_domain", s.config.RootDomain,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("storefront server error", "error", err)
		}
	}()

	return srv
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) serveStore(w http.ResponseWriter, r *http.Request) {
	host, ok := s.parser.Parse(r.Host)
	if !ok {
		s.serveError(w, storefront.NewNotFoundError(r.Host))
		return
	}

	s.logger.Debug("storefront request",
		"hostname", r.Host,
		"subdomain", host.Subdomain,
		"market_prefix", host.MarketPrefix,
	)

	key := ProfileKey(host.MarketPrefix, host.Subdomain)
	if body, hit, err := s.cache.Get(r.Context(), key); err != nil {
		s.logger.Warn("storefront cache read failed", "key", key, "error", err)
	} else if hit {
		s.writeBody(w, body)
		return
	}

	profile, err := s.loadProfile(r.Context(), host)
	if err != nil {
		var hostErr storefront.HostError
		if !errors.As(err, &hostErr) {
			s.logger.Error("failed to load store profile", "hostname", r.Host, "error", err)
			hostErr = storefront.NewUnavailableError(r.Host)
		}
		s.serveError(w, hostErr)
		return
	}

	body, err := json.Marshal(profile)
	if err != nil {
		s.logger.Error("failed to encode store profile", "error", err)
		s.serveError(w, storefront.NewUnavailableError(r.Host))
		return
	}
	if err := s.cache.Set(r.Context(), key, body); err != nil {
		s.logger.Warn("storefront cache write failed", "key", key, "error", err)
	}

	s.writeBody(w, body)
}

// ProfileKey is the cache key of the profile served for a store hostname.
func ProfileKey(marketPrefix, storeSubdomain string) string {
	return marketPrefix + ":" + storeSubdomain
}

func (s *Server) loadProfile(ctx context.Context, host storefront.StoreHost) (*Profile, error) {
	hostname := subdomain.ComposeHost(host.Subdomain, host.MarketPrefix, s.config.RootDomain)

	market, err := s.store.GetMarketByPrefix(ctx, host.MarketPrefix)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, storefront.NewNotFoundError(hostname)
		}
		return nil, err
	}

	st, err := s.store.GetStoreBySubdomain(ctx, market.ID, host.Subdomain)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, storefront.NewNotFoundError(hostname)
		}
		return nil, err
	}
	if !st.IsPublic() {
		return nil, storefront.NewNotApprovedError(hostname)
	}

	opts := store.DefaultListOptions()
	opts.AvailableOnly = true
	available, err := s.store.ListProductsByStore(ctx, st.ID, opts)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Store: StoreView{
			ID:          st.ID,
			StoreName:   st.StoreName,
			Subdomain:   st.Subdomain,
			Category:    st.Category,
			Location:    st.Location,
			Phone:       st.Phone,
			Hours:       st.Hours,
			PhotoURL:    st.PhotoURL,
			Description: st.Description,
		},
		MarketName: market.Name,
		FullDomain: hostname,
		Products:   available,
	}, nil
}

func (s *Server) writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// errorResponse matches the API error format.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) serveError(w http.ResponseWriter, err storefront.HostError) {
	s.logger.Warn("storefront error",
		"type", err.Type,
		"hostname", err.Hostname,
		"status", err.StatusCode,
	)

	code := "store_not_found"
	if err.Type == storefront.ErrorUnavailable {
		code = "store_unavailable"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Message, Code: code})
}

// HealthResponse is the JSON response for the health endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	RootDomain string `json:"root_domain"`
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok", RootDomain: s.config.RootDomain})
}
