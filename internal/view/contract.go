package view

import (
	"context"

	"github.com/sentinelhq/sentinel/internal/domain"
	"github.com/sentinelhq/sentinel/internal/usecase/session"
)

// Sessions is the slice of the session controller that protected views
// need: the current snapshot, and the fail-closed logout.
type Sessions interface {
	Current() session.Session
	Logout()
}

// LoginSessions is the slice the public auth views need.
type LoginSessions interface {
	Current() session.Session
	Login(ctx context.Context, email, password string) error
}

// ProjectAPI are the backend operations behind the project list view.
type ProjectAPI interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	CreateProject(ctx context.Context, name string) (domain.Project, error)
	DeleteProject(ctx context.Context, id int) error
}

// AnalyticsAPI are the backend operations behind the project detail view.
type AnalyticsAPI interface {
	ProjectStats(ctx context.Context, id int) (domain.ProjectStats, error)
	ProjectAnalytics(ctx context.Context, id int) (domain.ProjectAnalytics, error)
	ProjectModelAnalytics(ctx context.Context, id int) ([]domain.ModelUsage, error)
	UpdateProjectBudget(ctx context.Context, id, amount int) error
}

// AccountAPI are the backend operations behind account management and
// the public auth forms.
type AccountAPI interface {
	CreateAccount(ctx context.Context, email, password string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	DeleteCurrentUser(ctx context.Context) error
}
