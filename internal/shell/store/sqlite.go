package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/marketsphere/marketsphere/internal/core/dashboard"
	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/core/search"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	// Open database connection
	db, err := sqlx.Open("sqlite3", dsn+sep+"_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Every connection to :memory: is a separate database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Row Types
// =============================================================================

type userRow struct {
	ID        string `db:"id"`
	Role      string `db:"role"`
	CreatedAt string `db:"created_at"`
}

type marketRow struct {
	ID              string `db:"id"`
	MarketName      string `db:"market_name"`
	SubdomainPrefix string `db:"subdomain_prefix"`
	Address         string `db:"address"`
	CreatedAt       string `db:"created_at"`
}

type storeRow struct {
	ID             string `db:"id"`
	StoreName      string `db:"store_name"`
	Subdomain      string `db:"subdomain"`
	MarketID       string `db:"market_id"`
	OwnerID        string `db:"owner_id"`
	Category       string `db:"category"`
	Location       string `db:"location"`
	Phone          string `db:"phone"`
	Hours          string `db:"hours"`
	PhotoURL       string `db:"photo_url"`
	Description    string `db:"description"`
	ApprovalStatus string `db:"approval_status"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

type productRow struct {
	ID            string `db:"id"`
	StoreID       string `db:"store_id"`
	ProductName   string `db:"product_name"`
	Price         int64  `db:"price"`
	DiscountPrice *int64 `db:"discount_price"`
	ImageURL      string `db:"image_url"`
	Description   string `db:"description"`
	Stock         int    `db:"stock"`
	IsAvailable   bool   `db:"is_available"`
	CreatedAt     string `db:"created_at"`
}

// searchRow is a product joined with its store and market.
type searchRow struct {
	productRow
	StoreName     string `db:"s_store_name"`
	StoreCategory string `db:"s_category"`
	StoreLocation string `db:"s_location"`
	StorePhone    string `db:"s_phone"`
	MarketName    string `db:"m_market_name"`
}

type favoriteRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	StoreID   string `db:"store_id"`
	CreatedAt string `db:"created_at"`
}

// favoriteStoreRow is a favorite joined with its store summary.
type favoriteStoreRow struct {
	favoriteRow
	StoreName     string `db:"store_name"`
	Category      string `db:"category"`
	Location      string `db:"location"`
	Phone         string `db:"phone"`
	PhotoURL      string `db:"photo_url"`
	MarketName    string `db:"market_name"`
	ProductsCount int    `db:"products_count"`
}

type timeSaleRow struct {
	ID           string `db:"id"`
	StoreID      string `db:"store_id"`
	Title        string `db:"title"`
	Description  string `db:"description"`
	DiscountRate int    `db:"discount_rate"`
	StartTime    string `db:"start_time"`
	EndTime      string `db:"end_time"`
	IsActive     bool   `db:"is_active"`
	CreatedAt    string `db:"created_at"`
}

// activityRow is a time sale joined with its store.
type activityRow struct {
	timeSaleRow
	StoreName     string `db:"s_store_name"`
	StoreCategory string `db:"s_category"`
}

type statusCountRow struct {
	ApprovalStatus string `db:"approval_status"`
	StoreCount     int    `db:"store_count"`
}

type categoryCountRow struct {
	Category   string `db:"category"`
	StoreCount int    `db:"store_count"`
}

type storeRankRow struct {
	ID             string `db:"id"`
	StoreName      string `db:"store_name"`
	Category       string `db:"category"`
	ApprovalStatus string `db:"approval_status"`
	ProductsCount  int    `db:"products_count"`
	TimeSalesCount int    `db:"time_sales_count"`
}

// =============================================================================
// SQLiteStore Operations
// =============================================================================

func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	return upsertUser(ctx, s.db, user)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.db, id)
}

func (s *SQLiteStore) CreateMarket(ctx context.Context, market *domain.Market) error {
	return createMarket(ctx, s.db, market)
}

func (s *SQLiteStore) GetMarket(ctx context.Context, id string) (*domain.Market, error) {
	return getMarket(ctx, s.db, id)
}

func (s *SQLiteStore) GetMarketByPrefix(ctx context.Context, prefix string) (*domain.Market, error) {
	return getMarketByPrefix(ctx, s.db, prefix)
}

func (s *SQLiteStore) ListMarkets(ctx context.Context, opts ListOptions) ([]domain.Market, error) {
	return listMarkets(ctx, s.db, opts)
}

func (s *SQLiteStore) CreateStore(ctx context.Context, store *domain.Store) error {
	return createStore(ctx, s.db, store)
}

func (s *SQLiteStore) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	return getStore(ctx, s.db, id)
}

func (s *SQLiteStore) GetStoreBySubdomain(ctx context.Context, marketID, subdomain string) (*domain.Store, error) {
	return getStoreBySubdomain(ctx, s.db, marketID, subdomain)
}

func (s *SQLiteStore) ListStoresByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]domain.Store, error) {
	return listStoresByOwner(ctx, s.db, ownerID, opts)
}

func (s *SQLiteStore) ListSubdomains(ctx context.Context, marketID string) ([]string, error) {
	return listSubdomains(ctx, s.db, marketID)
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	return createProduct(ctx, s.db, product)
}

func (s *SQLiteStore) ListProductsByStore(ctx context.Context, storeID string, opts ListOptions) ([]domain.Product, error) {
	return listProductsByStore(ctx, s.db, storeID, opts)
}

func (s *SQLiteStore) CountProductsByStore(ctx context.Context, storeID string, opts ListOptions) (int, error) {
	return countProductsByStore(ctx, s.db, storeID, opts)
}

func (s *SQLiteStore) SearchProducts(ctx context.Context, q SearchQuery) ([]search.Hit, error) {
	return searchProducts(ctx, s.db, q)
}

func (s *SQLiteStore) CreateTimeSale(ctx context.Context, sale *domain.TimeSale) error {
	return createTimeSale(ctx, s.db, sale)
}

func (s *SQLiteStore) ListTimeSalesByStore(ctx context.Context, storeID string) ([]domain.TimeSale, error) {
	return listTimeSalesByStore(ctx, s.db, storeID)
}

func (s *SQLiteStore) MarketStats(ctx context.Context, marketID string, since, now time.Time) (*dashboard.Stats, error) {
	return marketStats(ctx, s.db, marketID, since, now)
}

func (s *SQLiteStore) CreateFavorite(ctx context.Context, fav *domain.Favorite) error {
	return createFavorite(ctx, s.db, fav)
}

func (s *SQLiteStore) GetFavorite(ctx context.Context, id string) (*domain.Favorite, error) {
	return getFavorite(ctx, s.db, id)
}

func (s *SQLiteStore) DeleteFavorite(ctx context.Context, id string) error {
	return deleteFavorite(ctx, s.db, id)
}

func (s *SQLiteStore) ListFavoritesByUser(ctx context.Context, userID string) ([]domain.FavoriteStore, error) {
	return listFavoritesByUser(ctx, s.db, userID)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	return upsertUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.tx, id)
}

func (s *txSQLiteStore) CreateMarket(ctx context.Context, market *domain.Market) error {
	return createMarket(ctx, s.tx, market)
}

func (s *txSQLiteStore) GetMarket(ctx context.Context, id string) (*domain.Market, error) {
	return getMarket(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetMarketByPrefix(ctx context.Context, prefix string) (*domain.Market, error) {
	return getMarketByPrefix(ctx, s.tx, prefix)
}

func (s *txSQLiteStore) ListMarkets(ctx context.Context, opts ListOptions) ([]domain.Market, error) {
	return listMarkets(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CreateStore(ctx context.Context, store *domain.Store) error {
	return createStore(ctx, s.tx, store)
}

func (s *txSQLiteStore) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	return getStore(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetStoreBySubdomain(ctx context.Context, marketID, subdomain string) (*domain.Store, error) {
	return getStoreBySubdomain(ctx, s.tx, marketID, subdomain)
}

func (s *txSQLiteStore) ListStoresByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]domain.Store, error) {
	return listStoresByOwner(ctx, s.tx, ownerID, opts)
}

func (s *txSQLiteStore) ListSubdomains(ctx context.Context, marketID string) ([]string, error) {
	return listSubdomains(ctx, s.tx, marketID)
}

func (s *txSQLiteStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	return createProduct(ctx, s.tx, product)
}

func (s *txSQLiteStore) ListProductsByStore(ctx context.Context, storeID string, opts ListOptions) ([]domain.Product, error) {
	return listProductsByStore(ctx, s.tx, storeID, opts)
}

func (s *txSQLiteStore) CountProductsByStore(ctx context.Context, storeID string, opts ListOptions) (int, error) {
	return countProductsByStore(ctx, s.tx, storeID, opts)
}

func (s *txSQLiteStore) SearchProducts(ctx context.Context, q SearchQuery) ([]search.Hit, error) {
	return searchProducts(ctx, s.tx, q)
}

func (s *txSQLiteStore) CreateTimeSale(ctx context.Context, sale *domain.TimeSale) error {
	return createTimeSale(ctx, s.tx, sale)
}

func (s *txSQLiteStore) ListTimeSalesByStore(ctx context.Context, storeID string) ([]domain.TimeSale, error) {
	return listTimeSalesByStore(ctx, s.tx, storeID)
}

func (s *txSQLiteStore) MarketStats(ctx context.Context, marketID string, since, now time.Time) (*dashboard.Stats, error) {
	return marketStats(ctx, s.tx, marketID, since, now)
}

func (s *txSQLiteStore) CreateFavorite(ctx context.Context, fav *domain.Favorite) error {
	return createFavorite(ctx, s.tx, fav)
}

func (s *txSQLiteStore) GetFavorite(ctx context.Context, id string) (*domain.Favorite, error) {
	return getFavorite(ctx, s.tx, id)
}

func (s *txSQLiteStore) DeleteFavorite(ctx context.Context, id string) error {
	return deleteFavorite(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListFavoritesByUser(ctx context.Context, userID string) ([]domain.FavoriteStore, error) {
	return listFavoritesByUser(ctx, s.tx, userID)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just execute the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// Transaction stores don't close the underlying connection
	return nil
}

// =============================================================================
// User Implementation
// =============================================================================

func upsertUser(ctx context.Context, exec executor, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO users (id, role, created_at) VALUES (:id, :role, :created_at)
		ON CONFLICT(id) DO UPDATE SET role = excluded.role`

	_, err := exec.NamedExecContext(ctx, query, map[string]any{
		"id":         user.ID,
		"role":       string(user.Role),
		"created_at": formatTime(user.CreatedAt),
	})
	if err != nil {
		return NewStoreError("UpsertUser", "user", user.ID, err.Error(), err)
	}
	return nil
}

func getUser(ctx context.Context, exec executor, id string) (*domain.User, error) {
	var row userRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUser", "user", id, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUser", "user", id, err.Error(), err)
	}

	return &domain.User{
		ID:        row.ID,
		Role:      domain.Role(row.Role),
		CreatedAt: parseTime(row.CreatedAt),
	}, nil
}

// =============================================================================
// Market Implementation
// =============================================================================

func createMarket(ctx context.Context, exec executor, market *domain.Market) error {
	query := `
		INSERT INTO markets (id, market_name, subdomain_prefix, address, created_at)
		VALUES (:id, :market_name, :subdomain_prefix, :address, :created_at)`

	_, err := exec.NamedExecContext(ctx, query, map[string]any{
		"id":               market.ID,
		"market_name":      market.Name,
		"subdomain_prefix": market.SubdomainPrefix,
		"address":          market.Address,
		"created_at":       formatTime(market.CreatedAt),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: markets.id") {
			return NewStoreError("CreateMarket", "market", market.ID, "market with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: markets.subdomain_prefix") {
			return NewStoreError("CreateMarket", "market", market.ID, "market with this subdomain prefix already exists", ErrDuplicatePrefix)
		}
		return NewStoreError("CreateMarket", "market", market.ID, err.Error(), err)
	}

	return nil
}

func getMarket(ctx context.Context, exec executor, id string) (*domain.Market, error) {
	var row marketRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM markets WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetMarket", "market", id, "market not found", ErrNotFound)
		}
		return nil, NewStoreError("GetMarket", "market", id, err.Error(), err)
	}
	return rowToMarket(&row), nil
}

func getMarketByPrefix(ctx context.Context, exec executor, prefix string) (*domain.Market, error) {
	var row marketRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM markets WHERE subdomain_prefix = ?`, prefix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetMarketByPrefix", "market", prefix, "market not found", ErrNotFound)
		}
		return nil, NewStoreError("GetMarketByPrefix", "market", prefix, err.Error(), err)
	}
	return rowToMarket(&row), nil
}

func listMarkets(ctx context.Context, exec executor, opts ListOptions) ([]domain.Market, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM markets ORDER BY market_name ASC LIMIT ? OFFSET ?`

	var rows []marketRow
	if err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListMarkets", "market", "", err.Error(), err)
	}

	markets := make([]domain.Market, 0, len(rows))
	for i := range rows {
		markets = append(markets, *rowToMarket(&rows[i]))
	}
	return markets, nil
}

// =============================================================================
// Store Implementation
// =============================================================================

func createStore(ctx context.Context, exec executor, store *domain.Store) error {
	query := `
		INSERT INTO stores (
			id, store_name, subdomain, market_id, owner_id, category,
			location, phone, hours, photo_url, description,
			approval_status, created_at, updated_at
		) VALUES (
			:id, :store_name, :subdomain, :market_id, :owner_id, :category,
			:location, :phone, :hours, :photo_url, :description,
			:approval_status, :created_at, :updated_at
		)`

	row := map[string]any{
		"id":              store.ID,
		"store_name":      store.StoreName,
		"subdomain":       store.Subdomain,
		"market_id":       store.MarketID,
		"owner_id":        store.OwnerID,
		"category":        string(store.Category),
		"location":        store.Location,
		"phone":           store.Phone,
		"hours":           store.Hours,
		"photo_url":       store.PhotoURL,
		"description":     store.Description,
		"approval_status": string(store.ApprovalStatus),
		"created_at":      formatTime(store.CreatedAt),
		"updated_at":      formatTime(store.UpdatedAt),
	}

	_, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: stores.market_id, stores.subdomain") {
			return NewStoreError("CreateStore", "store", store.ID, fmt.Sprintf("subdomain %q already taken", store.Subdomain), ErrDuplicateSubdomain)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: stores.id") {
			return NewStoreError("CreateStore", "store", store.ID, "store with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateStore", "store", store.ID, "market or owner does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateStore", "store", store.ID, err.Error(), err)
	}

	return nil
}

func getStore(ctx context.Context, exec executor, id string) (*domain.Store, error) {
	var row storeRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM stores WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetStore", "store", id, "store not found", ErrNotFound)
		}
		return nil, NewStoreError("GetStore", "store", id, err.Error(), err)
	}
	return rowToStore(&row), nil
}

func getStoreBySubdomain(ctx context.Context, exec executor, marketID, subdomain string) (*domain.Store, error) {
	var row storeRow
	query := `SELECT * FROM stores WHERE market_id = ? AND subdomain = ?`
	err := exec.GetContext(ctx, &row, query, marketID, subdomain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetStoreBySubdomain", "store", subdomain, "store not found", ErrNotFound)
		}
		return nil, NewStoreError("GetStoreBySubdomain", "store", subdomain, err.Error(), err)
	}
	return rowToStore(&row), nil
}

func listStoresByOwner(ctx context.Context, exec executor, ownerID string, opts ListOptions) ([]domain.Store, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM stores WHERE owner_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []storeRow
	if err := exec.SelectContext(ctx, &rows, query, ownerID, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListStoresByOwner", "store", "", err.Error(), err)
	}

	stores := make([]domain.Store, 0, len(rows))
	for i := range rows {
		stores = append(stores, *rowToStore(&rows[i]))
	}
	return stores, nil
}

func listSubdomains(ctx context.Context, exec executor, marketID string) ([]string, error) {
	subdomains := []string{}
	query := `SELECT subdomain FROM stores WHERE market_id = ?`
	if err := exec.SelectContext(ctx, &subdomains, query, marketID); err != nil {
		return nil, NewStoreError("ListSubdomains", "store", "", err.Error(), err)
	}
	return subdomains, nil
}

// =============================================================================
// Product Implementation
// =============================================================================

func createProduct(ctx context.Context, exec executor, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, store_id, product_name, price, discount_price, image_url,
			description, stock, is_available, created_at
		) VALUES (
			:id, :store_id, :product_name, :price, :discount_price, :image_url,
			:description, :stock, :is_available, :created_at
		)`

	row := map[string]any{
		"id":             product.ID,
		"store_id":       product.StoreID,
		"product_name":   product.ProductName,
		"price":          product.Price,
		"discount_price": product.DiscountPrice,
		"image_url":      product.ImageURL,
		"description":    product.Description,
		"stock":          product.Stock,
		"is_available":   product.IsAvailable,
		"created_at":     formatTime(product.CreatedAt),
	}

	_, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: products.id") {
			return NewStoreError("CreateProduct", "product", product.ID, "product with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateProduct", "product", product.ID, "store does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateProduct", "product", product.ID, err.Error(), err)
	}

	return nil
}

// productFilter is the WHERE clause of a store's product list.
func productFilter(opts ListOptions) string {
	if opts.AvailableOnly {
		return `WHERE store_id = ? AND is_available = 1`
	}
	return `WHERE store_id = ?`
}

func listProductsByStore(ctx context.Context, exec executor, storeID string, opts ListOptions) ([]domain.Product, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM products ` + productFilter(opts) + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []productRow
	if err := exec.SelectContext(ctx, &rows, query, storeID, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListProductsByStore", "product", "", err.Error(), err)
	}

	products := make([]domain.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rowToProduct(&rows[i]))
	}
	return products, nil
}

func countProductsByStore(ctx context.Context, exec executor, storeID string, opts ListOptions) (int, error) {
	var n int
	if err := exec.GetContext(ctx, &n, `SELECT COUNT(*) FROM products `+productFilter(opts), storeID); err != nil {
		return 0, NewStoreError("CountProductsByStore", "product", storeID, err.Error(), err)
	}
	return n, nil
}

// searchOrder maps a sort order to an ORDER BY clause. Relevance has no
// scoring yet and lists the newest products first.
var searchOrder = map[search.SortBy]string{
	search.SortRelevance: `p.created_at DESC`,
	search.SortPriceAsc:  `p.price ASC, p.created_at DESC`,
	search.SortPriceDesc: `p.price DESC, p.created_at DESC`,
	search.SortNewest:    `p.created_at DESC`,
}

func searchProducts(ctx context.Context, exec executor, q SearchQuery) ([]search.Hit, error) {
	text := strings.TrimSpace(q.Text)
	limit := q.Limit
	if limit <= 0 || limit > search.ResultLimit {
		limit = search.ResultLimit
	}

	var b strings.Builder
	b.WriteString(`
		SELECT p.*,
			s.store_name AS s_store_name,
			s.category AS s_category,
			s.location AS s_location,
			s.phone AS s_phone,
			m.market_name AS m_market_name
		FROM products p
		JOIN stores s ON s.id = p.store_id
		JOIN markets m ON m.id = s.market_id
		WHERE p.product_name LIKE ? ESCAPE '\'
			AND p.is_available = 1
			AND s.approval_status = ?`)
	args := []any{"%" + escapeLike(text) + "%", string(domain.ApprovalApproved)}

	if q.MarketID != "" {
		b.WriteString(` AND s.market_id = ?`)
		args = append(args, q.MarketID)
	}

	b.WriteString(` ORDER BY ` + searchOrder[search.ParseSortBy(string(q.SortBy))])
	b.WriteString(` LIMIT ?`)
	args = append(args, limit)

	var rows []searchRow
	if err := exec.SelectContext(ctx, &rows, b.String(), args...); err != nil {
		return nil, NewStoreError("SearchProducts", "product", "", err.Error(), err)
	}

	hits := make([]search.Hit, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		hits = append(hits, search.Hit{
			Product: *rowToProduct(&row.productRow),
			Store: search.StoreSummary{
				ID:         row.StoreID,
				StoreName:  row.StoreName,
				Category:   domain.Category(row.StoreCategory),
				Location:   row.StoreLocation,
				Phone:      row.StorePhone,
				MarketName: row.MarketName,
			},
		})
	}
	return hits, nil
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// =============================================================================
// Time Sale Implementation
// =============================================================================

func createTimeSale(ctx context.Context, exec executor, sale *domain.TimeSale) error {
	query := `
		INSERT INTO time_sales (
			id, store_id, title, description, discount_rate,
			start_time, end_time, is_active, created_at
		) VALUES (
			:id, :store_id, :title, :description, :discount_rate,
			:start_time, :end_time, :is_active, :created_at
		)`

	_, err := exec.NamedExecContext(ctx, query, map[string]any{
		"id":            sale.ID,
		"store_id":      sale.StoreID,
		"title":         sale.Title,
		"description":   sale.Description,
		"discount_rate": sale.DiscountRate,
		"start_time":    formatTime(sale.StartTime),
		"end_time":      formatTime(sale.EndTime),
		"is_active":     sale.IsActive,
		"created_at":    formatTime(sale.CreatedAt),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: time_sales.id") {
			return NewStoreError("CreateTimeSale", "time_sale", sale.ID, "time sale with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateTimeSale", "time_sale", sale.ID, "store does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateTimeSale", "time_sale", sale.ID, err.Error(), err)
	}
	return nil
}

func listTimeSalesByStore(ctx context.Context, exec executor, storeID string) ([]domain.TimeSale, error) {
	query := `SELECT * FROM time_sales WHERE store_id = ? ORDER BY created_at DESC`

	var rows []timeSaleRow
	if err := exec.SelectContext(ctx, &rows, query, storeID); err != nil {
		return nil, NewStoreError("ListTimeSalesByStore", "time_sale", "", err.Error(), err)
	}

	sales := make([]domain.TimeSale, 0, len(rows))
	for i := range rows {
		sales = append(sales, *rowToTimeSale(&rows[i]))
	}
	return sales, nil
}

// =============================================================================
// Market Statistics
// =============================================================================

func marketStats(ctx context.Context, exec executor, marketID string, since, now time.Time) (*dashboard.Stats, error) {
	fail := func(err error) (*dashboard.Stats, error) {
		return nil, NewStoreError("MarketStats", "market", marketID, err.Error(), err)
	}
	approved := string(domain.ApprovalApproved)
	stats := &dashboard.Stats{StatusCounts: make(map[domain.ApprovalStatus]int)}

	var statuses []statusCountRow
	if err := exec.SelectContext(ctx, &statuses, `
		SELECT approval_status, COUNT(*) AS store_count
		FROM stores WHERE market_id = ?
		GROUP BY approval_status`, marketID); err != nil {
		return fail(err)
	}
	for _, row := range statuses {
		stats.StatusCounts[domain.ApprovalStatus(row.ApprovalStatus)] = row.StoreCount
	}

	if err := exec.GetContext(ctx, &stats.TimeSalesCreated, `
		SELECT COUNT(*) FROM time_sales t
		JOIN stores s ON s.id = t.store_id
		WHERE s.market_id = ? AND t.created_at >= ?`,
		marketID, formatTime(since)); err != nil {
		return fail(err)
	}

	nowText := formatTime(now)
	if err := exec.GetContext(ctx, &stats.TimeSalesRunning, `
		SELECT COUNT(*) FROM time_sales t
		JOIN stores s ON s.id = t.store_id
		WHERE s.market_id = ? AND t.is_active = 1
			AND t.start_time <= ? AND t.end_time >= ?`,
		marketID, nowText, nowText); err != nil {
		return fail(err)
	}

	var ranks []storeRankRow
	if err := exec.SelectContext(ctx, &ranks, `
		SELECT s.id, s.store_name, s.category, s.approval_status,
			(SELECT COUNT(*) FROM products p WHERE p.store_id = s.id) AS products_count,
			(SELECT COUNT(*) FROM time_sales t WHERE t.store_id = s.id) AS time_sales_count
		FROM stores s
		WHERE s.market_id = ? AND s.approval_status = ?
		ORDER BY products_count DESC, s.created_at ASC
		LIMIT ?`, marketID, approved, dashboard.TopStoresLimit); err != nil {
		return fail(err)
	}
	stats.TopStores = make([]dashboard.StoreRank, 0, len(ranks))
	for _, row := range ranks {
		stats.TopStores = append(stats.TopStores, dashboard.StoreRank{
			ID:             row.ID,
			StoreName:      row.StoreName,
			Category:       domain.Category(row.Category),
			ProductsCount:  row.ProductsCount,
			TimeSalesCount: row.TimeSalesCount,
			ApprovalStatus: domain.ApprovalStatus(row.ApprovalStatus),
		})
	}

	var pending []storeRow
	if err := exec.SelectContext(ctx, &pending, `
		SELECT * FROM stores
		WHERE market_id = ? AND approval_status = ?
		ORDER BY created_at DESC
		LIMIT ?`, marketID, string(domain.ApprovalPending), dashboard.PendingLimit); err != nil {
		return fail(err)
	}
	stats.Pending = make([]dashboard.PendingStore, 0, len(pending))
	for i := range pending {
		st := rowToStore(&pending[i])
		stats.Pending = append(stats.Pending, dashboard.PendingStore{
			ID:        st.ID,
			StoreName: st.StoreName,
			Category:  st.Category,
			Phone:     st.Phone,
			Location:  st.Location,
			OwnerID:   st.OwnerID,
			CreatedAt: st.CreatedAt,
		})
	}

	var categories []categoryCountRow
	if err := exec.SelectContext(ctx, &categories, `
		SELECT category, COUNT(*) AS store_count
		FROM stores
		WHERE market_id = ? AND approval_status = ?
		GROUP BY category
		ORDER BY store_count DESC, category ASC`, marketID, approved); err != nil {
		return fail(err)
	}
	stats.Categories = make([]dashboard.CategoryCount, 0, len(categories))
	for _, row := range categories {
		stats.Categories = append(stats.Categories, dashboard.CategoryCount{
			Category: domain.Category(row.Category),
			Count:    row.StoreCount,
		})
	}

	var recent []activityRow
	if err := exec.SelectContext(ctx, &recent, `
		SELECT t.*,
			s.store_name AS s_store_name,
			s.category AS s_category
		FROM time_sales t
		JOIN stores s ON s.id = t.store_id
		WHERE s.market_id = ? AND t.created_at >= ?
		ORDER BY t.created_at DESC
		LIMIT ?`, marketID, formatTime(since), dashboard.RecentActivityLimit); err != nil {
		return fail(err)
	}
	stats.Recent = make([]dashboard.Activity, 0, len(recent))
	for i := range recent {
		row := &recent[i]
		sale := rowToTimeSale(&row.timeSaleRow)
		stats.Recent = append(stats.Recent, dashboard.Activity{
			ID:           sale.ID,
			Type:         dashboard.ActivityTimeSale,
			StoreName:    row.StoreName,
			Category:     domain.Category(row.StoreCategory),
			Title:        sale.Title,
			DiscountRate: sale.DiscountRate,
			StartTime:    sale.StartTime,
			EndTime:      sale.EndTime,
			CreatedAt:    sale.CreatedAt,
		})
	}

	return stats, nil
}

// =============================================================================
// Favorite Implementation
// =============================================================================

func createFavorite(ctx context.Context, exec executor, fav *domain.Favorite) error {
	query := `
		INSERT INTO favorites (id, user_id, store_id, created_at)
		VALUES (:id, :user_id, :store_id, :created_at)`

	_, err := exec.NamedExecContext(ctx, query, map[string]any{
		"id":         fav.ID,
		"user_id":    fav.UserID,
		"store_id":   fav.StoreID,
		"created_at": formatTime(fav.CreatedAt),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: favorites.user_id, favorites.store_id") {
			return NewStoreError("CreateFavorite", "favorite", fav.ID, "store already in favorites", ErrDuplicateFavorite)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: favorites.id") {
			return NewStoreError("CreateFavorite", "favorite", fav.ID, "favorite with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateFavorite", "favorite", fav.ID, "user or store does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateFavorite", "favorite", fav.ID, err.Error(), err)
	}
	return nil
}

func getFavorite(ctx context.Context, exec executor, id string) (*domain.Favorite, error) {
	var row favoriteRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM favorites WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetFavorite", "favorite", id, "favorite not found", ErrNotFound)
		}
		return nil, NewStoreError("GetFavorite", "favorite", id, err.Error(), err)
	}
	return rowToFavorite(&row), nil
}

func deleteFavorite(ctx context.Context, exec executor, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteFavorite", "favorite", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteFavorite", "favorite", id, "favorite not found", ErrNotFound)
	}
	return nil
}

func listFavoritesByUser(ctx context.Context, exec executor, userID string) ([]domain.FavoriteStore, error) {
	query := `
		SELECT f.*,
			s.store_name, s.category, s.location, s.phone, s.photo_url,
			m.market_name,
			(SELECT COUNT(*) FROM products p WHERE p.store_id = s.id) AS products_count
		FROM favorites f
		JOIN stores s ON s.id = f.store_id
		JOIN markets m ON m.id = s.market_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC`

	var rows []favoriteStoreRow
	if err := exec.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, NewStoreError("ListFavoritesByUser", "favorite", "", err.Error(), err)
	}

	favorites := make([]domain.FavoriteStore, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		favorites = append(favorites, domain.FavoriteStore{
			Favorite:      *rowToFavorite(&row.favoriteRow),
			StoreName:     row.StoreName,
			Category:      domain.Category(row.Category),
			Location:      row.Location,
			Phone:         row.Phone,
			PhotoURL:      row.PhotoURL,
			MarketName:    row.MarketName,
			ProductsCount: row.ProductsCount,
		})
	}
	return favorites, nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func rowToMarket(row *marketRow) *domain.Market {
	return &domain.Market{
		ID:              row.ID,
		Name:            row.MarketName,
		SubdomainPrefix: row.SubdomainPrefix,
		Address:         row.Address,
		CreatedAt:       parseTime(row.CreatedAt),
	}
}

func rowToStore(row *storeRow) *domain.Store {
	return &domain.Store{
		ID:             row.ID,
		StoreName:      row.StoreName,
		Subdomain:      row.Subdomain,
		MarketID:       row.MarketID,
		OwnerID:        row.OwnerID,
		Category:       domain.Category(row.Category),
		Location:       row.Location,
		Phone:          row.Phone,
		Hours:          row.Hours,
		PhotoURL:       row.PhotoURL,
		Description:    row.Description,
		ApprovalStatus: domain.ApprovalStatus(row.ApprovalStatus),
		CreatedAt:      parseTime(row.CreatedAt),
		UpdatedAt:      parseTime(row.UpdatedAt),
	}
}

func rowToProduct(row *productRow) *domain.Product {
	return &domain.Product{
		ID:            row.ID,
		StoreID:       row.StoreID,
		ProductName:   row.ProductName,
		Price:         row.Price,
		DiscountPrice: row.DiscountPrice,
		ImageURL:      row.ImageURL,
		Description:   row.Description,
		Stock:         row.Stock,
		IsAvailable:   row.IsAvailable,
		CreatedAt:     parseTime(row.CreatedAt),
	}
}

func rowToFavorite(row *favoriteRow) *domain.Favorite {
	return &domain.Favorite{
		ID:        row.ID,
		UserID:    row.UserID,
		StoreID:   row.StoreID,
		CreatedAt: parseTime(row.CreatedAt),
	}
}

func rowToTimeSale(row *timeSaleRow) *domain.TimeSale {
	return &domain.TimeSale{
		ID:           row.ID,
		StoreID:      row.StoreID,
		Title:        row.Title,
		Description:  row.Description,
		DiscountRate: row.DiscountRate,
		StartTime:    parseTime(row.StartTime),
		EndTime:      parseTime(row.EndTime),
		IsActive:     row.IsActive,
		CreatedAt:    parseTime(row.CreatedAt),
	}
}
