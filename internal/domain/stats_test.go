package domain

import (
	"testing"
	"time"
)

func day(offset int) time.Time {
	return time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestSortChronological(t *testing.T) {
	series := []DailyUsage{
		{Date: day(2), Cost: 3},
		{Date: day(0), Cost: 1},
		{Date: day(1), Cost: 2},
	}
	SortChronological(series)
	for i := range series {
		if !series[i].Date.Equal(day(i)) {
			t.Fatalf("series[%d].Date = %s, want %s", i, series[i].Date, day(i))
		}
	}
}

func TestBudgetUsedFraction(t *testing.T) {
	tests := []struct {
		name  string
		stats ProjectStats
		want  float64
	}{
		{name: "quarter used", stats: ProjectStats{MonthlyBudget: 1000, CurrentUsage: 250}, want: 0.25},
		{name: "no budget", stats: ProjectStats{MonthlyBudget: 0, CurrentUsage: 50}, want: 0},
		{name: "over budget", stats: ProjectStats{MonthlyBudget: 100, CurrentUsage: 150}, want: 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.BudgetUsedFraction(); got != tt.want {
				t.Fatalf("BudgetUsedFraction() = %v, want %v", got, tt.want)
			}
		})
	}
}
