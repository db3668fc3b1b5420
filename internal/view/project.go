package view

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sentinelhq/sentinel/internal/domain"
)

// ProjectDetail is the analytics view for one project. It caches one
// snapshot of each backend document, replaced wholesale on every
// successful fetch, never patched field by field.
type ProjectDetail struct {
	api      AnalyticsAPI
	sessions Sessions
	logger   *zap.Logger

	id        int
	stats     domain.ProjectStats
	analytics domain.ProjectAnalytics
	models    []domain.ModelUsage
	loaded    bool
}

// NewProjectDetail creates the detail view for the given project id.
func NewProjectDetail(id int, api AnalyticsAPI, sessions Sessions, logger *zap.Logger) *ProjectDetail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectDetail{id: id, api: api, sessions: sessions, logger: logger}
}

// ID returns the project id this view renders.
func (v *ProjectDetail) ID() int { return v.id }

// Load guards the view, then fans out the three analytics reads
// concurrently and joins on all of them. The join is all-or-nothing:
// if any read fails, no partial result is kept and the visitor is sent
// back to the project list, which re-validates the session itself.
func (v *ProjectDetail) Load(ctx context.Context) Outcome {
	if out := Guard(v.sessions.Current()); !out.IsProceed() {
		return out
	}

	var (
		wg sync.WaitGroup

		stats    domain.ProjectStats
		statsErr error

		analytics    domain.ProjectAnalytics
		analyticsErr error

		models    []domain.ModelUsage
		modelsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		stats, statsErr = v.api.ProjectStats(ctx, v.id)
	}()
	go func() {
		defer wg.Done()
		analytics, analyticsErr = v.api.ProjectAnalytics(ctx, v.id)
	}()
	go func() {
		defer wg.Done()
		models, modelsErr = v.api.ProjectModelAnalytics(ctx, v.id)
	}()
	wg.Wait()

	for _, err := range []error{statsErr, analyticsErr, modelsErr} {
		if err != nil {
			v.logger.Warn("loading project analytics failed",
				zap.Int("project_id", v.id),
				zap.Error(err),
			)
			return RedirectTo(RouteDashboard)
		}
	}

	v.stats = stats
	v.analytics = analytics
	v.models = models
	v.loaded = true
	return Proceed()
}

// Loaded reports whether a complete snapshot has been fetched.
func (v *ProjectDetail) Loaded() bool { return v.loaded }

// Stats returns the cached budget/usage snapshot.
func (v *ProjectDetail) Stats() domain.ProjectStats { return v.stats }

// Analytics returns the cached analytics document.
func (v *ProjectDetail) Analytics() domain.ProjectAnalytics { return v.analytics }

// Models returns the cached per-model breakdown.
func (v *ProjectDetail) Models() []domain.ModelUsage { return v.models }

// UpdateBudget validates the edited amount locally, commits it, then
// rereads stats from the backend and replaces the cached snapshot
// wholesale, so the displayed budget always reflects server-confirmed
// state. Invalid input never reaches the network; any failure leaves
// the previous stats displayed so the user can retry without re-typing.
func (v *ProjectDetail) UpdateBudget(ctx context.Context, input string) error {
	amount, err := domain.ParseBudgetAmount(input)
	if err != nil {
		return err
	}

	if err := v.api.UpdateProjectBudget(ctx, v.id, amount); err != nil {
		return err
	}

	fresh, err := v.api.ProjectStats(ctx, v.id)
	if err != nil {
		return err
	}
	v.stats = fresh
	v.logger.Info("budget updated", zap.Int("project_id", v.id), zap.Int("monthly_budget", amount))
	return nil
}
