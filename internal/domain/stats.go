package domain

import (
	"sort"
	"time"
)

// ProjectStats is a server-derived usage snapshot for one project.
// The client replaces it wholesale after every successful fetch or
// budget update, never field by field.
type ProjectStats struct {
	ProjectName   string
	MonthlyBudget int
	CurrentUsage  float64
}

// BudgetUsedFraction reports spend as a fraction of the monthly budget.
// Returns 0 when no budget is set.
func (s ProjectStats) BudgetUsedFraction() float64 {
	if s.MonthlyBudget <= 0 {
		return 0
	}
	return s.CurrentUsage / float64(s.MonthlyBudget)
}

// DailyUsage is one (date, cost) point of a usage series.
type DailyUsage struct {
	Date time.Time
	Cost float64
}

// ProjectAnalytics is the read-only analytics document for one project.
type ProjectAnalytics struct {
	TotalRequests         int
	AverageCostPerRequest float64
	UsageLast30Days       []DailyUsage
}

// ModelUsage is the per-model usage breakdown entry.
type ModelUsage struct {
	Model    string
	Requests int
	Cost     float64
}

// SortChronological orders a usage series by date ascending. The backend
// already sends it ordered; this keeps the invariant when it does not.
func SortChronological(series []DailyUsage) {
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
}
