package view

import (
	"context"
	"errors"
	"testing"

	"github.com/sentinelhq/sentinel/internal/domain"
)

func loadedDetail(t *testing.T, api *mockAnalyticsAPI) *ProjectDetail {
	t.Helper()
	v := NewProjectDetail(7, api, authedSessions(t, &memStore{}), nil)
	if out := v.Load(context.Background()); !out.IsProceed() {
		t.Fatalf("load failed: %+v", out)
	}
	return v
}

func TestProjectDetailLoad_AllReadsJoin(t *testing.T) {
	api := &mockAnalyticsAPI{
		stats:     domain.ProjectStats{ProjectName: "Alpha", MonthlyBudget: 1000, CurrentUsage: 250},
		analytics: sampleAnalytics(),
		models:    []domain.ModelUsage{{Model: "gpt-4o", Requests: 10, Cost: 2.5}},
	}
	v := loadedDetail(t, api)

	if !v.Loaded() {
		t.Fatal("Loaded() = false after successful join")
	}
	if v.Stats().MonthlyBudget != 1000 {
		t.Errorf("stats = %+v", v.Stats())
	}
	if v.Analytics().TotalRequests != 42 {
		t.Errorf("analytics = %+v", v.Analytics())
	}
	if len(v.Models()) != 1 {
		t.Errorf("models = %+v", v.Models())
	}
}

func TestProjectDetailLoad_PartialFailureRendersNothing(t *testing.T) {
	api := &mockAnalyticsAPI{
		stats:        domain.ProjectStats{ProjectName: "Alpha", MonthlyBudget: 1000, CurrentUsage: 250},
		analyticsErr: errors.New("boom"),
		models:       []domain.ModelUsage{{Model: "gpt-4o"}},
	}
	v := NewProjectDetail(7, api, authedSessions(t, &memStore{}), nil)

	out := v.Load(context.Background())

	route, ok := out.Redirect()
	if !ok || route != RouteDashboard {
		t.Fatalf("outcome = %+v, want redirect to %s", out, RouteDashboard)
	}
	if v.Loaded() {
		t.Fatal("view marked loaded despite partial failure")
	}
	if v.Stats() != (domain.ProjectStats{}) {
		t.Fatalf("partial stats retained: %+v", v.Stats())
	}
}

func TestProjectDetailLoad_UnauthenticatedIssuesNoReads(t *testing.T) {
	api := &mockAnalyticsAPI{}
	v := NewProjectDetail(7, api, anonSessions(t), nil)

	out := v.Load(context.Background())
	if route, ok := out.Redirect(); !ok || route != RouteLogin {
		t.Fatalf("outcome = %+v, want redirect to %s", out, RouteLogin)
	}
	if api.statsCalls != 0 {
		t.Fatalf("stats fetched %d times for unauthenticated visitor", api.statsCalls)
	}
}

func TestUpdateBudget_InvalidInputNeverReachesNetwork(t *testing.T) {
	api := &mockAnalyticsAPI{
		stats:     domain.ProjectStats{ProjectName: "Alpha", MonthlyBudget: 1000, CurrentUsage: 250},
		analytics: sampleAnalytics(),
	}
	v := loadedDetail(t, api)
	callsAfterLoad := api.statsCalls

	for _, input := range []string{"-5", "abc", ""} {
		if err := v.UpdateBudget(context.Background(), input); !errors.Is(err, domain.ErrInvalidBudget) {
			t.Fatalf("UpdateBudget(%q) = %v, want ErrInvalidBudget", input, err)
		}
	}

	if api.updateCalls != 0 {
		t.Fatalf("update issued %d times for invalid input", api.updateCalls)
	}
	if api.statsCalls != callsAfterLoad {
		t.Fatal("stats reread issued for invalid input")
	}
	if v.Stats().MonthlyBudget != 1000 {
		t.Fatalf("displayed budget changed: %+v", v.Stats())
	}
}

func TestUpdateBudget_CommitsThenRereads(t *testing.T) {
	api := &mockAnalyticsAPI{
		stats:     domain.ProjectStats{ProjectName: "Alpha", MonthlyBudget: 1000, CurrentUsage: 250},
		analytics: sampleAnalytics(),
	}
	v := loadedDetail(t, api)

	if err := v.UpdateBudget(context.Background(), "2000"); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}

	if api.updatedAmount != 2000 {
		t.Fatalf("committed amount = %d, want 2000", api.updatedAmount)
	}
	// The displayed snapshot comes from the reread, not the input.
	if v.Stats().MonthlyBudget != 2000 {
		t.Fatalf("displayed budget = %d, want 2000", v.Stats().MonthlyBudget)
	}
	if v.Stats().CurrentUsage != 250 {
		t.Fatalf("usage changed by budget update: %v", v.Stats().CurrentUsage)
	}
}

func TestUpdateBudget_WriteFailureKeepsPriorStats(t *testing.T) {
	api := &mockAnalyticsAPI{
		stats:     domain.ProjectStats{ProjectName: "Alpha", MonthlyBudget: 1000, CurrentUsage: 250},
		analytics: sampleAnalytics(),
	}
	v := loadedDetail(t, api)
	api.updateErr = errors.New("boom")

	if err := v.UpdateBudget(context.Background(), "2000"); err == nil {
		t.Fatal("expected update error")
	}
	if v.Stats().MonthlyBudget != 1000 {
		t.Fatalf("displayed budget = %d, want prior 1000", v.Stats().MonthlyBudget)
	}
}

func TestUpdateBudget_RereadFailureKeepsPriorStats(t *testing.T) {
	api := &mockAnalyticsAPI{
		stats:     domain.ProjectStats{ProjectName: "Alpha", MonthlyBudget: 1000, CurrentUsage: 250},
		analytics: sampleAnalytics(),
	}
	v := loadedDetail(t, api)
	api.statsErr = errors.New("boom")

	if err := v.UpdateBudget(context.Background(), "2000"); err == nil {
		t.Fatal("expected reread error")
	}
	if v.Stats().MonthlyBudget != 1000 {
		t.Fatalf("displayed budget = %d, want prior 1000", v.Stats().MonthlyBudget)
	}
}
