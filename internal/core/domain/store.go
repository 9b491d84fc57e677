package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrStoreNameRequired = errors.New("store name is required")
	ErrStoreNameTooLong  = errors.New("store name must be at most 30 characters")
	ErrCategoryRequired  = errors.New("category is required")
	ErrCategoryInvalid   = errors.New("invalid store category")
	ErrPhoneRequired     = errors.New("phone is required")
	ErrMarketRequired    = errors.New("market is required")
	ErrOwnerRequired     = errors.New("owner is required")
)

// MaxStoreNameLength matches the registration form limit.
const MaxStoreNameLength = 30

// =============================================================================
// Approval Status
// =============================================================================

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// IsValid checks if the approval status is known.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	default:
		return false
	}
}

// =============================================================================
// Category
// =============================================================================

type Category string

const (
	CategoryFood       Category = "FOOD"
	CategoryProduce    Category = "PRODUCE"
	CategorySeafood    Category = "SEAFOOD"
	CategoryMeat       Category = "MEAT"
	CategorySideDishes Category = "SIDE_DISHES"
	CategoryBakery     Category = "BAKERY"
	CategoryCafe       Category = "CAFE"
	CategoryGrocery    Category = "GROCERY"
	CategoryOther      Category = "OTHER"
)

// IsValid checks if the category is known.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryProduce, CategorySeafood, CategoryMeat,
		CategorySideDishes, CategoryBakery, CategoryCafe, CategoryGrocery, CategoryOther:
		return true
	default:
		return false
	}
}

// =============================================================================
// Store
// =============================================================================

// Store is a merchant's shop inside a market.
//
// Subdomain is assigned once at registration and never regenerated, even if
// the store is renamed. The full domain is derived from Subdomain and the
// market prefix on demand and is not stored.
type Store struct {
	ID             string         `json:"id"`
	StoreName      string         `json:"store_name"`
	Subdomain      string         `json:"subdomain"`
	MarketID       string         `json:"market_id"`
	OwnerID        string         `json:"owner_id"`
	Category       Category       `json:"category"`
	Location       string         `json:"location,omitempty"`
	Phone          string         `json:"phone"`
	Hours          string         `json:"hours,omitempty"`
	PhotoURL       string         `json:"photo_url,omitempty"`
	Description    string         `json:"description,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// StoreParams holds the merchant-entered fields of a registration.
type StoreParams struct {
	StoreName   string
	MarketID    string
	OwnerID     string
	Category    Category
	Location    string
	Phone       string
	Hours       string
	PhotoURL    string
	Description string
}

// NewStore validates params and creates a pending store without a subdomain.
func NewStore(p StoreParams) (*Store, error) {
	name := strings.TrimSpace(p.StoreName)
	if err := ValidateStoreName(name); err != nil {
		return nil, err
	}
	if p.MarketID == "" {
		return nil, ErrMarketRequired
	}
	if p.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if p.Category == "" {
		return nil, ErrCategoryRequired
	}
	if !p.Category.IsValid() {
		return nil, ErrCategoryInvalid
	}
	if strings.TrimSpace(p.Phone) == "" {
		return nil, ErrPhoneRequired
	}

	now := time.Now()
	return &Store{
		ID:             "str_" + uuid.New().String()[:8],
		StoreName:      name,
		MarketID:       p.MarketID,
		OwnerID:        p.OwnerID,
		Category:       p.Category,
		Location:       p.Location,
		Phone:          strings.TrimSpace(p.Phone),
		Hours:          p.Hours,
		PhotoURL:       p.PhotoURL,
		Description:    p.Description,
		ApprovalStatus: ApprovalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ValidateStoreName checks the store name against the registration form rules.
func ValidateStoreName(name string) error {
	if name == "" {
		return ErrStoreNameRequired
	}
	if utf8.RuneCountInString(name) > MaxStoreNameLength {
		return ErrStoreNameTooLong
	}
	return nil
}

// IsPublic reports whether the store may be shown to customers.
func (s Store) IsPublic() bool {
	return s.ApprovalStatus == ApprovalApproved
}
