package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marketsphere/marketsphere/internal/core/domain"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input    string
		expected Period
	}{
		{"day", PeriodDay},
		{"week", PeriodWeek},
		{"month", PeriodMonth},
		{"", PeriodWeek},
		{"year", PeriodWeek},
		{"DAY", PeriodWeek},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePeriod(tt.input))
		})
	}
}

func TestPeriod_Since(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 30, 12, 0, 0, 0, time.UTC), PeriodDay.Since(now))
	assert.Equal(t, time.Date(2026, 3, 24, 12, 0, 0, 0, time.UTC), PeriodWeek.Since(now))
	// AddDate normalizes February 31st to March 3rd.
	assert.Equal(t, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), PeriodMonth.Since(now))
}

func TestSummarize(t *testing.T) {
	o := Summarize(map[domain.ApprovalStatus]int{
		domain.ApprovalApproved: 4,
		domain.ApprovalPending:  2,
		domain.ApprovalRejected: 1,
	})
	assert.Equal(t, Overview{TotalStores: 7, ApprovedStores: 4, PendingStores: 2, RejectedStores: 1}, o)

	assert.Equal(t, Overview{}, Summarize(nil))
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	stats := Stats{
		StatusCounts:     map[domain.ApprovalStatus]int{domain.ApprovalApproved: 1},
		TimeSalesCreated: 3,
		TimeSalesRunning: 1,
		TopStores:        []StoreRank{{ID: "str_1", ProductsCount: 5}},
	}

	d := Build(stats, PeriodDay, now)
	assert.Equal(t, 1, d.Overview.TotalStores)
	assert.Equal(t, TimeSaleSummary{Total: 3, Active: 1, Period: PeriodDay}, d.TimeSales)
	assert.Len(t, d.TopStores, 1)
	assert.NotNil(t, d.PendingApprovals)
	assert.Empty(t, d.PendingApprovals)
	assert.NotNil(t, d.CategoryDistribution)
	assert.NotNil(t, d.RecentActivity)
	assert.Equal(t, Window{Start: now.AddDate(0, 0, -1), End: now, Label: PeriodDay}, d.Period)
}
