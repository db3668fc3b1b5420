package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinelhq/sentinel/internal/domain"
)

// Dashboard is the project list view. It owns the only in-memory copy
// of the project list, ordered as the backend returned it, and the
// staged-deletion selection behind the confirm dialog.
type Dashboard struct {
	api      ProjectAPI
	sessions Sessions
	logger   *zap.Logger

	projects []domain.Project
	pending  *domain.Project
}

// NewDashboard creates the project list view.
func NewDashboard(api ProjectAPI, sessions Sessions, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{api: api, sessions: sessions, logger: logger}
}

// Load guards the view and fetches the project list. Any failure to
// load the user's own projects is treated as an invalid session, not a
// transient error: the session is logged out and the visitor redirected.
func (d *Dashboard) Load(ctx context.Context) Outcome {
	if out := Guard(d.sessions.Current()); !out.IsProceed() {
		return out
	}

	projects, err := d.api.ListProjects(ctx)
	if err != nil {
		d.logger.Warn("loading projects failed, invalidating session", zap.Error(err))
		d.sessions.Logout()
		return RedirectTo(RouteLogin)
	}

	d.projects = projects
	return Proceed()
}

// Projects returns the current list in backend order.
func (d *Dashboard) Projects() []domain.Project { return d.projects }

// Create validates the name locally, issues the create call, and on
// success appends the returned project to the list tail. On failure the
// list is untouched so the user can retry with the same input.
func (d *Dashboard) Create(ctx context.Context, name string) (domain.Project, error) {
	if err := domain.ValidateProjectName(name); err != nil {
		return domain.Project{}, err
	}

	project, err := d.api.CreateProject(ctx, name)
	if err != nil {
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}

	d.projects = append(d.projects, project)
	d.logger.Info("project created", zap.Int("id", project.ID), zap.String("name", project.Name))
	return project, nil
}

// StageDeletion stages the destructive delete for confirmation. Staging
// an id that is not in the list is a no-op and reports false.
func (d *Dashboard) StageDeletion(id int) bool {
	for _, p := range d.projects {
		if p.ID == id {
			staged := p
			d.pending = &staged
			return true
		}
	}
	return false
}

// PendingDeletion returns the staged project, if any.
func (d *Dashboard) PendingDeletion() (domain.Project, bool) {
	if d.pending == nil {
		return domain.Project{}, false
	}
	return *d.pending, true
}

// CancelDeletion drops the staged selection without deleting anything.
func (d *Dashboard) CancelDeletion() { d.pending = nil }

// ConfirmDeletion fires the staged delete. On success the project is
// removed from the list; on failure the list is untouched. Either way
// the staged selection is cleared so no confirmation dialog dangles.
func (d *Dashboard) ConfirmDeletion(ctx context.Context) error {
	if d.pending == nil {
		return nil
	}
	target := *d.pending
	d.pending = nil

	if err := d.api.DeleteProject(ctx, target.ID); err != nil {
		return fmt.Errorf("delete project %d: %w", target.ID, err)
	}

	kept := d.projects[:0]
	for _, p := range d.projects {
		if p.ID != target.ID {
			kept = append(kept, p)
		}
	}
	d.projects = kept
	d.logger.Info("project deleted", zap.Int("id", target.ID))
	return nil
}
