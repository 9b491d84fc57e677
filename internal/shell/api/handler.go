// Package api provides HTTP handlers for the MarketSphere API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/marketsphere/marketsphere/internal/core/auth"
	"github.com/marketsphere/marketsphere/internal/core/dashboard"
	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/core/search"
	"github.com/marketsphere/marketsphere/internal/core/validation"
	authmw "github.com/marketsphere/marketsphere/internal/shell/api/middleware"
	"github.com/marketsphere/marketsphere/internal/shell/api/openapi"
	"github.com/marketsphere/marketsphere/internal/shell/registration"
	"github.com/marketsphere/marketsphere/internal/shell/store"
	"github.com/marketsphere/marketsphere/internal/shell/storefront"
)

// =============================================================================
// Handler
// =============================================================================

// Config holds the HTTP-facing settings of the API.
type Config struct {
	// AuthMode selects how identity is read ("header", "dev", "none").
	AuthMode string
	// SharedSecret, when set, must arrive in X-Gateway-Secret.
	SharedSecret string
	// RequireAuth rejects unauthenticated calls to protected routes with 401
	// before they reach a handler.
	RequireAuth bool
	// DevRole is the role of the dev-mode user.
	DevRole domain.Role
	// CORSOrigins lists the allowed browser origins.
	CORSOrigins []string
	// Version is reported in the OpenAPI document.
	Version string
	// ProfileCache, when set, is invalidated when a store's products change.
	ProfileCache storefront.Cache
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	store     store.Store
	registrar *registration.Registrar
	docs      *openapi.Generator
	docsOnce  sync.Once
	config    Config
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, reg *registration.Registrar, cfg Config, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if reg == nil {
		reg = registration.NewRegistrar(s, registration.Config{}, l)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Handler{
		store:     s,
		registrar: reg,
		docs:      openapi.NewGenerator(openapi.WithVersion(cfg.Version)),
		config:    cfg,
		logger:    l,
	}
}

// route pairs a handler with its OpenAPI description.
type route struct {
	info    openapi.RouteInfo
	handler http.HandlerFunc
}

func (h *Handler) routes() []route {
	return []route{
		{openapi.RouteInfo{Method: "GET", Path: "/health", OperationID: "health", Summary: "Health check", Tag: "System", Response: HealthResponse{}}, h.handleHealth},

		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/markets", OperationID: "listMarkets", Summary: "List markets", Tag: "Markets", Response: ListMarketsResponse{}, Query: []string{"limit", "offset"}}, h.handleListMarkets},
		{openapi.RouteInfo{Method: "POST", Path: "/api/v1/markets", OperationID: "createMarket", Summary: "Create a market", Tag: "Markets", Request: CreateMarketRequest{}, Response: MarketResponse{}, Status: http.StatusCreated, Auth: true}, h.handleCreateMarket},
		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/markets/{market}/stores/{subdomain}", OperationID: "getStoreProfile", Summary: "Public profile of an approved store", Tag: "Stores", Response: StoreProfileResponse{}}, h.handleGetStoreProfile},
		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/markets/{market}/dashboard", OperationID: "getMarketDashboard", Summary: "Association overview of a market", Tag: "Markets", Response: MarketDashboardResponse{}, Query: []string{"period"}, Auth: true}, h.handleMarketDashboard},

		{openapi.RouteInfo{Method: "POST", Path: "/api/v1/stores", OperationID: "registerStore", Summary: "Register a store and assign its subdomain", Tag: "Stores", Request: RegisterStoreRequest{}, Response: RegisterStoreResponse{}, Status: http.StatusCreated, Auth: true}, h.handleRegisterStore},
		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/stores", OperationID: "listMyStores", Summary: "List the caller's stores", Tag: "Stores", Response: ListStoresResponse{}, Auth: true}, h.handleListStores},
		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/stores/{id}/products", OperationID: "listStoreProducts", Summary: "List a store's products", Tag: "Products", Response: ListProductsResponse{}}, h.handleListStoreProducts},
		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/subdomains/preview", OperationID: "previewSubdomain", Summary: "Preview the subdomain a store name would receive", Tag: "Stores", Response: SubdomainPreviewResponse{}, Query: []string{"name", "market_id"}}, h.handlePreviewSubdomain},

		{openapi.RouteInfo{Method: "POST", Path: "/api/v1/products", OperationID: "createProduct", Summary: "Create a product", Tag: "Products", Request: CreateProductRequest{}, Response: domain.Product{}, Status: http.StatusCreated, Auth: true}, h.handleCreateProduct},
		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/products/search", OperationID: "searchProducts", Summary: "Search products across approved stores", Tag: "Products", Response: SearchResponse{}, Query: []string{"q", "market_id", "sort_by"}}, h.handleSearchProducts},

		{openapi.RouteInfo{Method: "POST", Path: "/api/v1/timesales", OperationID: "createTimeSale", Summary: "Start a time sale on the caller's store", Tag: "TimeSales", Request: CreateTimeSaleRequest{}, Response: domain.TimeSale{}, Status: http.StatusCreated, Auth: true}, h.handleCreateTimeSale},
		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/timesales", OperationID: "listTimeSales", Summary: "List the time sales of the caller's store", Tag: "TimeSales", Response: ListTimeSalesResponse{}, Query: []string{"store_id"}, Auth: true}, h.handleListTimeSales},

		{openapi.RouteInfo{Method: "GET", Path: "/api/v1/favorites", OperationID: "listFavorites", Summary: "List the caller's favorite stores", Tag: "Favorites", Response: ListFavoritesResponse{}, Auth: true}, h.handleListFavorites},
		{openapi.RouteInfo{Method: "POST", Path: "/api/v1/favorites", OperationID: "createFavorite", Summary: "Add a store to favorites", Tag: "Favorites", Request: CreateFavoriteRequest{}, Response: domain.Favorite{}, Status: http.StatusCreated, Auth: true}, h.handleCreateFavorite},
		{openapi.RouteInfo{Method: "DELETE", Path: "/api/v1/favorites/{id}", OperationID: "deleteFavorite", Summary: "Remove a favorite", Tag: "Favorites", Status: http.StatusNoContent, Auth: true}, h.handleDeleteFavorite},
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.HeaderUserID, auth.HeaderUserRole},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)
	r.Use(authmw.NewAuthMiddleware(authmw.AuthConfig{
		Mode:         h.config.AuthMode,
		SharedSecret: h.config.SharedSecret,
		DevRole:      h.config.DevRole,
		Logger:       h.logger,
	}).Handler)

	table := h.routes()
	h.docsOnce.Do(func() {
		for _, rt := range table {
			h.docs.RegisterRoute(rt.info)
		}
	})

	requireAuth := authmw.RequireAuth(h.logger)
	for _, rt := range table {
		if rt.info.Auth && h.config.RequireAuth {
			r.With(requireAuth).Method(rt.info.Method, rt.info.Path, rt.handler)
			continue
		}
		r.Method(rt.info.Method, rt.info.Path, rt.handler)
	}
	r.Get("/openapi.json", h.docs.Handler())

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// =============================================================================
// Market Handlers
// =============================================================================

func (h *Handler) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)

	markets, err := h.store.ListMarkets(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list markets", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list markets", "internal_error")
		return
	}

	opts = opts.Normalize()
	resp := ListMarketsResponse{
		Markets: make([]MarketResponse, 0, len(markets)),
		Total:   len(markets),
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}
	for _, m := range markets {
		resp.Markets = append(resp.Markets, marketToResponse(&m))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}
	authCtx, err := h.resolveRole(r, authCtx)
	if err != nil {
		h.logger.Error("failed to load user role", "user_id", authCtx.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create market", "internal_error")
		return
	}
	if !auth.CanCreateMarket(authCtx) {
		h.writeError(w, http.StatusForbidden, "only the merchant association can create markets", "forbidden")
		return
	}

	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if field, msg := validation.ValidateCreateMarketFields(req.MarketName, req.SubdomainPrefix); field != "" {
		h.writeError(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	market, err := domain.NewMarket(req.MarketName, req.SubdomainPrefix, req.Address)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateMarket(r.Context(), market); err != nil {
		if errors.Is(err, store.ErrDuplicatePrefix) {
			h.writeError(w, http.StatusConflict, "subdomain prefix already in use", "prefix_taken")
			return
		}
		h.logger.Error("failed to create market", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create market", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, marketToResponse(market))
}

func (h *Handler) handleMarketDashboard(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}
	authCtx, err := h.resolveRole(r, authCtx)
	if err != nil {
		h.logger.Error("failed to load user role", "user_id", authCtx.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load dashboard", "internal_error")
		return
	}
	if !auth.CanViewMarketDashboard(authCtx) {
		h.writeError(w, http.StatusForbidden, "only the merchant association can view market dashboards", "forbidden")
		return
	}

	market, err := h.lookupMarket(r, chi.URLParam(r, "market"))
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "market not found", "market_not_found")
			return
		}
		h.logger.Error("failed to get market", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load dashboard", "internal_error")
		return
	}

	period := dashboard.ParsePeriod(r.URL.Query().Get("period"))
	now := time.Now()
	stats, err := h.store.MarketStats(r.Context(), market.ID, period.Since(now), now)
	if err != nil {
		h.logger.Error("failed to aggregate market stats", "market_id", market.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load dashboard", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, MarketDashboardResponse{
		Market:    marketToResponse(market),
		Dashboard: dashboard.Build(*stats, period, now),
	})
}

// =============================================================================
// Store Handlers
// =============================================================================

const (
	msgPendingApproval = "Registration received. The merchant association will review it within 1-2 business days."
	msgApproved        = "Registration complete. Your store is live."
)

func (h *Handler) handleRegisterStore(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	var req RegisterStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if field, msg := validation.ValidateRegisterStoreFields(req.StoreName, req.Category, req.MarketID, req.Phone); field != "" {
		h.writeError(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	result, err := h.registrar.Register(r.Context(), registration.RegisterParams{
		StoreParams: domain.StoreParams{
			StoreName:   req.StoreName,
			MarketID:    req.MarketID,
			OwnerID:     authCtx.UserID,
			Category:    domain.Category(req.Category),
			Location:    req.Location,
			Phone:       req.Phone,
			Hours:       req.Hours,
			PhotoURL:    req.PhotoURL,
			Description: req.Description,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrMarketNotFound):
			h.writeError(w, http.StatusNotFound, "market not found", "market_not_found")
		case errors.Is(err, registration.ErrSubdomainExhausted):
			h.writeError(w, http.StatusConflict, registration.ErrSubdomainExhausted.Error(), "subdomain_conflict")
		case isValidationError(err):
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		default:
			h.logger.Error("failed to register store", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to register store", "internal_error")
		}
		return
	}

	message := msgPendingApproval
	if result.Store.IsPublic() {
		message = msgApproved
	}

	h.writeJSON(w, http.StatusCreated, RegisterStoreResponse{
		Store:          storeToResponse(result.Store, result.Market, result.FullDomain),
		Subdomain:      result.Store.Subdomain,
		FullDomain:     result.FullDomain,
		ApprovalStatus: string(result.Store.ApprovalStatus),
		Message:        message,
	})
}

func (h *Handler) handleListStores(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	stores, err := h.store.ListStoresByOwner(r.Context(), authCtx.UserID, listOptions(r))
	if err != nil {
		h.logger.Error("failed to list stores", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list stores", "internal_error")
		return
	}

	markets := make(map[string]*domain.Market)
	resp := ListStoresResponse{
		Stores: make([]StoreResponse, 0, len(stores)),
		Total:  len(stores),
	}
	for i := range stores {
		st := &stores[i]
		market, ok := markets[st.MarketID]
		if !ok {
			market, err = h.store.GetMarket(r.Context(), st.MarketID)
			if err != nil {
				h.logger.Error("failed to load market", "market_id", st.MarketID, "error", err)
				h.writeError(w, http.StatusInternalServerError, "failed to list stores", "internal_error")
				return
			}
			markets[st.MarketID] = market
		}
		resp.Stores = append(resp.Stores, storeToResponse(st, market, h.registrar.FullDomain(*st, *market)))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePreviewSubdomain(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	marketID := r.URL.Query().Get("market_id")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", "validation_error")
		return
	}
	if marketID == "" {
		h.writeError(w, http.StatusBadRequest, "market_id is required", "validation_error")
		return
	}

	preview, err := h.registrar.Preview(r.Context(), name, marketID)
	if err != nil {
		if errors.Is(err, registration.ErrMarketNotFound) {
			h.writeError(w, http.StatusNotFound, "market not found", "market_not_found")
			return
		}
		h.logger.Error("failed to preview subdomain", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to preview subdomain", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, SubdomainPreviewResponse{
		StoreName:  name,
		Subdomain:  preview.Subdomain,
		FullDomain: preview.FullDomain,
	})
}

func (h *Handler) handleGetStoreProfile(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "market")
	sub := chi.URLParam(r, "subdomain")

	market, err := h.store.GetMarketByPrefix(r.Context(), prefix)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "store not found", "store_not_found")
			return
		}
		h.logger.Error("failed to get market", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get store", "internal_error")
		return
	}

	st, err := h.store.GetStoreBySubdomain(r.Context(), market.ID, sub)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "store not found", "store_not_found")
			return
		}
		h.logger.Error("failed to get store", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get store", "internal_error")
		return
	}
	if !st.IsPublic() {
		h.writeError(w, http.StatusNotFound, "store not found", "store_not_found")
		return
	}

	opts := store.DefaultListOptions()
	opts.AvailableOnly = true
	products, err := h.store.ListProductsByStore(r.Context(), st.ID, opts)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get store", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, StoreProfileResponse{
		Store:    storeToResponse(st, market, h.registrar.FullDomain(*st, *market)),
		Products: products,
	})
}

// =============================================================================
// Product Handlers
// =============================================================================

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if field, msg := validation.ValidateCreateProductFields(req.StoreID, req.ProductName); field != "" {
		h.writeError(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	st, err := h.store.GetStore(r.Context(), req.StoreID)
	if err != nil && !isNotFound(err) {
		h.logger.Error("failed to get store", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create product", "internal_error")
		return
	}
	if st == nil || !auth.CanManageStore(authCtx, *st) {
		h.writeError(w, http.StatusForbidden, "store not found or not owned by caller", "forbidden")
		return
	}

	product, err := domain.NewProduct(st.ID, req.ProductName, req.Price, req.DiscountPrice, req.Stock)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	product.ImageURL = req.ImageURL
	product.Description = req.Description

	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create product", "internal_error")
		return
	}
	h.invalidateProfile(r, st)

	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) handleListStoreProducts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	authCtx := auth.FromContext(r.Context())

	st, err := h.store.GetStore(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "store not found", "store_not_found")
			return
		}
		h.logger.Error("failed to get store", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list products", "internal_error")
		return
	}
	if !auth.CanViewStore(authCtx, *st) {
		h.writeError(w, http.StatusNotFound, "store not found", "store_not_found")
		return
	}

	// Owners also see products they have taken off sale.
	opts := listOptions(r)
	opts.AvailableOnly = !auth.CanManageStore(authCtx, *st)

	products, err := h.store.ListProductsByStore(r.Context(), id, opts)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list products", "internal_error")
		return
	}
	total, err := h.store.CountProductsByStore(r.Context(), id, opts)
	if err != nil {
		h.logger.Error("failed to count products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list products", "internal_error")
		return
	}

	opts = opts.Normalize()
	h.writeJSON(w, http.StatusOK, ListProductsResponse{
		Products: products,
		Total:    total,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "search query is required", "validation_error")
		return
	}
	sortBy := search.ParseSortBy(r.URL.Query().Get("sort_by"))

	hits, err := h.store.SearchProducts(r.Context(), store.SearchQuery{
		Text:     q,
		MarketID: r.URL.Query().Get("market_id"),
		SortBy:   sortBy,
		Limit:    search.ResultLimit,
	})
	if err != nil {
		h.logger.Error("failed to search products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to search products", "internal_error")
		return
	}

	result := search.Aggregate(hits, sortBy)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:  q,
		SortBy: string(sortBy),
		Groups: result.Groups,
		Stats:  result.Stats,
	})
}

// =============================================================================
// Time Sale Handlers
// =============================================================================

func (h *Handler) handleCreateTimeSale(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	var req CreateTimeSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if field, msg := validation.ValidateCreateTimeSaleFields(req.StoreID, req.Title); field != "" {
		h.writeError(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	st, ok := h.ownedStore(w, r, authCtx, req.StoreID, "failed to create time sale")
	if !ok {
		return
	}

	sale, err := domain.NewTimeSale(domain.TimeSaleParams{
		StoreID:      st.ID,
		Title:        req.Title,
		Description:  req.Description,
		DiscountRate: req.DiscountRate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateTimeSale(r.Context(), sale); err != nil {
		h.logger.Error("failed to create time sale", "store_id", st.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create time sale", "internal_error")
		return
	}

	h.logger.Info("time sale created", "time_sale_id", sale.ID, "store_id", st.ID, "discount_rate", sale.DiscountRate)
	h.writeJSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleListTimeSales(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	storeID := r.URL.Query().Get("store_id")
	if storeID == "" {
		h.writeError(w, http.StatusBadRequest, "store_id is required", "validation_error")
		return
	}

	st, ok := h.ownedStore(w, r, authCtx, storeID, "failed to list time sales")
	if !ok {
		return
	}

	sales, err := h.store.ListTimeSalesByStore(r.Context(), st.ID)
	if err != nil {
		h.logger.Error("failed to list time sales", "store_id", st.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list time sales", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, ListTimeSalesResponse{TimeSales: sales, Total: len(sales)})
}

// ownedStore loads the store and checks the caller owns it. Missing and
// foreign stores both answer 403. On failure the response has been written.
func (h *Handler) ownedStore(w http.ResponseWriter, r *http.Request, authCtx auth.Context, storeID, failMsg string) (*domain.Store, bool) {
	st, err := h.store.GetStore(r.Context(), storeID)
	if err != nil && !isNotFound(err) {
		h.logger.Error("failed to get store", "store_id", storeID, "error", err)
		h.writeError(w, http.StatusInternalServerError, failMsg, "internal_error")
		return nil, false
	}
	if st == nil || !auth.CanManageStore(authCtx, *st) {
		h.writeError(w, http.StatusForbidden, "store not found or not owned by caller", "forbidden")
		return nil, false
	}
	return st, true
}

// =============================================================================
// Favorite Handlers
// =============================================================================

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	favorites, err := h.store.ListFavoritesByUser(r.Context(), authCtx.UserID)
	if err != nil {
		h.logger.Error("failed to list favorites", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list favorites", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, ListFavoritesResponse{Favorites: favorites, Total: len(favorites)})
}

func (h *Handler) handleCreateFavorite(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	var req CreateFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if field, msg := validation.ValidateCreateFavoriteFields(req.StoreID); field != "" {
		h.writeError(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	st, err := h.store.GetStore(r.Context(), req.StoreID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "store not found", "store_not_found")
			return
		}
		h.logger.Error("failed to get store", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to add favorite", "internal_error")
		return
	}
	if !st.IsPublic() {
		h.writeError(w, http.StatusBadRequest, "store is not approved yet", "store_not_approved")
		return
	}

	if err := h.ensureUser(r, authCtx); err != nil {
		h.logger.Error("failed to record user", "user_id", authCtx.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to add favorite", "internal_error")
		return
	}

	fav := domain.NewFavorite(authCtx.UserID, st.ID)
	if err := h.store.CreateFavorite(r.Context(), fav); err != nil {
		if errors.Is(err, store.ErrDuplicateFavorite) {
			h.writeError(w, http.StatusConflict, "store already in favorites", "already_favorite")
			return
		}
		h.logger.Error("failed to add favorite", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to add favorite", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, fav)
}

func (h *Handler) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	authCtx := auth.FromContext(r.Context())
	if ok, reason := auth.RequireAuthentication(authCtx); !ok {
		h.writeError(w, http.StatusUnauthorized, reason, "unauthorized")
		return
	}

	fav, err := h.store.GetFavorite(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "favorite not found", "favorite_not_found")
			return
		}
		h.logger.Error("failed to get favorite", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to remove favorite", "internal_error")
		return
	}
	if !auth.CanDeleteFavorite(authCtx, *fav) {
		h.writeError(w, http.StatusForbidden, "favorite belongs to another user", "forbidden")
		return
	}

	if err := h.store.DeleteFavorite(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "favorite not found", "favorite_not_found")
			return
		}
		h.logger.Error("failed to remove favorite", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to remove favorite", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// invalidateProfile drops the cached storefront profile of st. Failures only
// delay the change until the cache entry expires.
func (h *Handler) invalidateProfile(r *http.Request, st *domain.Store) {
	if h.config.ProfileCache == nil {
		return
	}
	market, err := h.store.GetMarket(r.Context(), st.MarketID)
	if err != nil {
		h.logger.Warn("failed to load market for cache invalidation", "store_id", st.ID, "error", err)
		return
	}
	key := storefront.ProfileKey(market.SubdomainPrefix, st.Subdomain)
	if err := h.config.ProfileCache.Delete(r.Context(), key); err != nil {
		h.logger.Warn("failed to invalidate storefront cache", "key", key, "error", err)
	}
}

// resolveRole fills in the stored role of a caller whose identity arrived
// without one. Unknown users keep the empty role.
func (h *Handler) resolveRole(r *http.Request, authCtx auth.Context) (auth.Context, error) {
	if !authCtx.Authenticated || authCtx.Role != "" {
		return authCtx, nil
	}
	user, err := h.store.GetUser(r.Context(), authCtx.UserID)
	if err != nil {
		if isNotFound(err) {
			return authCtx, nil
		}
		return authCtx, err
	}
	authCtx.Role = user.Role
	return authCtx, nil
}

// lookupMarket finds a market by ID, falling back to its subdomain prefix.
func (h *Handler) lookupMarket(r *http.Request, key string) (*domain.Market, error) {
	market, err := h.store.GetMarket(r.Context(), key)
	if err == nil || !isNotFound(err) {
		return market, err
	}
	return h.store.GetMarketByPrefix(r.Context(), key)
}

// ensureUser records a caller seen for the first time. The role comes from
// the auth provider, defaulting to customer.
func (h *Handler) ensureUser(r *http.Request, authCtx auth.Context) error {
	_, err := h.store.GetUser(r.Context(), authCtx.UserID)
	if err == nil || !isNotFound(err) {
		return err
	}
	role := authCtx.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	return h.store.UpsertUser(r.Context(), &domain.User{ID: authCtx.UserID, Role: role})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	return opts
}

func marketToResponse(m *domain.Market) MarketResponse {
	return MarketResponse{
		ID:              m.ID,
		MarketName:      m.Name,
		SubdomainPrefix: m.SubdomainPrefix,
		Address:         m.Address,
		CreatedAt:       m.CreatedAt,
	}
}

func storeToResponse(s *domain.Store, m *domain.Market, fullDomain string) StoreResponse {
	return StoreResponse{
		ID:             s.ID,
		StoreName:      s.StoreName,
		Subdomain:      s.Subdomain,
		FullDomain:     fullDomain,
		MarketID:       s.MarketID,
		MarketName:     m.Name,
		Category:       string(s.Category),
		Location:       s.Location,
		Phone:          s.Phone,
		Hours:          s.Hours,
		PhotoURL:       s.PhotoURL,
		Description:    s.Description,
		ApprovalStatus: string(s.ApprovalStatus),
		CreatedAt:      s.CreatedAt,
	}
}

// validationErrors are domain errors caused by the request itself.
var validationErrors = []error{
	domain.ErrStoreNameRequired,
	domain.ErrStoreNameTooLong,
	domain.ErrCategoryRequired,
	domain.ErrCategoryInvalid,
	domain.ErrPhoneRequired,
	domain.ErrMarketRequired,
	domain.ErrOwnerRequired,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}
