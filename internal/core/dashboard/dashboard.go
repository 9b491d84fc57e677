// Package dashboard assembles the merchant association's per-market overview
// from aggregates read by the store. All functions are pure.
package dashboard

import (
	"time"

	"github.com/marketsphere/marketsphere/internal/core/domain"
)

// Row caps for the ranked and recent lists.
const (
	TopStoresLimit      = 10
	PendingLimit        = 10
	RecentActivityLimit = 20
)

// =============================================================================
// Period
// =============================================================================

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a period, defaulting to a week.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDay, PeriodMonth:
		return Period(s)
	default:
		return PeriodWeek
	}
}

// Since returns the start of the period ending at now.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodDay:
		return now.AddDate(0, 0, -1)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// =============================================================================
// Aggregates
// =============================================================================

// StoreRank is an approved store ranked by its product count.
type StoreRank struct {
	ID             string                `json:"id"`
	StoreName      string                `json:"store_name"`
	Category       domain.Category       `json:"category"`
	ProductsCount  int                   `json:"products_count"`
	TimeSalesCount int                   `json:"time_sales_count"`
	ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
}

// PendingStore is a registration waiting for the association's review.
type PendingStore struct {
	ID        string          `json:"id"`
	StoreName string          `json:"store_name"`
	Category  domain.Category `json:"category"`
	Phone     string          `json:"phone"`
	Location  string          `json:"location,omitempty"`
	OwnerID   string          `json:"owner_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// CategoryCount is the number of approved stores in a category.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// Activity is a time sale created in the period.
type Activity struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	StoreName    string          `json:"store_name"`
	Category     domain.Category `json:"category"`
	Title        string          `json:"title"`
	DiscountRate int             `json:"discount_rate"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ActivityTimeSale is the Activity type of time sale entries.
const ActivityTimeSale = "timesale"

// Stats holds the raw aggregates of one market. Lists arrive already ordered
// and capped.
type Stats struct {
	StatusCounts     map[domain.ApprovalStatus]int
	TimeSalesCreated int
	TimeSalesRunning int
	TopStores        []StoreRank
	Pending          []PendingStore
	Categories       []CategoryCount
	Recent           []Activity
}

// =============================================================================
// Dashboard
// =============================================================================

// Overview counts the market's stores by approval status.
type Overview struct {
	TotalStores    int `json:"total_stores"`
	ApprovedStores int `json:"approved_stores"`
	PendingStores  int `json:"pending_stores"`
	RejectedStores int `json:"rejected_stores"`
}

// TimeSaleSummary counts time sales created in the period and those running
// at the time of the request.
type TimeSaleSummary struct {
	Total  int    `json:"total"`
	Active int    `json:"active"`
	Period Period `json:"period"`
}

// Window is the reporting period.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label Period    `json:"label"`
}

// Dashboard is the association's view of one market.
type Dashboard struct {
	Overview             Overview        `json:"overview"`
	TimeSales            TimeSaleSummary `json:"time_sales"`
	TopStores            []StoreRank     `json:"top_stores"`
	PendingApprovals     []PendingStore  `json:"pending_approvals"`
	CategoryDistribution []CategoryCount `json:"category_distribution"`
	RecentActivity       []Activity      `json:"recent_activity"`
	Period               Window          `json:"period"`
}

// Summarize turns per-status counts into an overview. Statuses the overview
// does not name still count towards the total.
func Summarize(counts map[domain.ApprovalStatus]int) Overview {
	o := Overview{
		ApprovedStores: counts[domain.ApprovalApproved],
		PendingStores:  counts[domain.ApprovalPending],
		RejectedStores: counts[domain.ApprovalRejected],
	}
	for _, n := range counts {
		o.TotalStores += n
	}
	return o
}

// Build assembles the dashboard for the period ending at now. Nil lists
// become empty so they encode as [].
func Build(stats Stats, period Period, now time.Time) Dashboard {
	return Dashboard{
		Overview: Summarize(stats.StatusCounts),
		TimeSales: TimeSaleSummary{
			Total:  stats.TimeSalesCreated,
			Active: stats.TimeSalesRunning,
			Period: period,
		},
		TopStores:            orEmpty(stats.TopStores),
		PendingApprovals:     orEmpty(stats.Pending),
		CategoryDistribution: orEmpty(stats.Categories),
		RecentActivity:       orEmpty(stats.Recent),
		Period: Window{
			Start: period.Since(now),
			End:   now,
			Label: period,
		},
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
