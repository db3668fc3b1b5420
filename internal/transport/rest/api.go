package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sentinelhq/sentinel/internal/domain"
)

// Wire shapes. The backend speaks snake_case JSON; dates in usage series
// are day-granular ISO strings.

type projectDTO struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	SentinelKey string `json:"sentinel_key"`
}

func (d projectDTO) toDomain() domain.Project {
	return domain.Project{ID: d.ID, Name: d.Name, SentinelKey: d.SentinelKey}
}

type statsDTO struct {
	ProjectName   string  `json:"project_name"`
	MonthlyBudget int     `json:"monthly_budget"`
	CurrentUsage  float64 `json:"current_usage"`
}

type dailyUsageDTO struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

type analyticsDTO struct {
	TotalRequests         int             `json:"total_requests"`
	AverageCostPerRequest float64         `json:"average_cost_per_request"`
	UsageLast30Days       []dailyUsageDTO `json:"usage_last_30_days"`
}

type modelUsageDTO struct {
	Model    string  `json:"model"`
	Requests int     `json:"requests"`
	Cost     float64 `json:"cost"`
}

type messageDTO struct {
	Message string `json:"message"`
}

// Authenticate exchanges credentials for a bearer token. The token
// endpoint expects a form-encoded body with a username field.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, "authenticate", http.MethodPost, "/auth/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) && (re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusBadRequest) {
			return "", fmt.Errorf("authenticate: %w", domain.ErrInvalidCredentials)
		}
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("authenticate: backend returned no token")
	}
	return out.AccessToken, nil
}

// CreateAccount registers a new user.
func (c *Client) CreateAccount(ctx context.Context, email, password string) error {
	payload := map[string]string{"email": email, "password": password}
	err := c.sendJSON(ctx, "create_account", http.MethodPost, "/auth/signup", payload, nil)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) && (re.StatusCode == http.StatusBadRequest || re.StatusCode == http.StatusConflict) {
			return fmt.Errorf("create account: %w", domain.ErrEmailTaken)
		}
		return err
	}
	return nil
}

// RequestPasswordReset asks the backend to mail a reset link. The
// backend answers with the same message whether or not the email exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var out messageDTO
	err := c.sendJSON(ctx, "request_password_reset", http.MethodPost,
		"/auth/forgot-password", map[string]string{"email": email}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// ResetPassword completes a password reset using a mailed token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	payload := map[string]string{"token": token, "new_password": newPassword}
	var out messageDTO
	err := c.sendJSON(ctx, "reset_password", http.MethodPost, "/auth/reset-password", payload, &out)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) && re.StatusCode == http.StatusBadRequest {
			return "", fmt.Errorf("reset password: %w: %s", domain.ErrResetTokenInvalid, re.Detail)
		}
		return "", err
	}
	return out.Message, nil
}

// ListProjects returns the caller's projects in backend order.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var dtos []projectDTO
	if err := c.getJSON(ctx, "list_projects", "/projects", &dtos); err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(dtos))
	for _, d := range dtos {
		projects = append(projects, d.toDomain())
	}
	return projects, nil
}

// CreateProject creates a project and returns it with its server-assigned
// id and Sentinel Key.
func (c *Client) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	var dto projectDTO
	err := c.sendJSON(ctx, "create_project", http.MethodPost, "/projects",
		map[string]string{"name": name}, &dto)
	if err != nil {
		return domain.Project{}, err
	}
	return dto.toDomain(), nil
}

// DeleteProject removes a project and all its usage data.
func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.do(ctx, "delete_project", http.MethodDelete, fmt.Sprintf("/projects/%d", id), "", nil, nil)
}

// DeleteCurrentUser permanently removes the authenticated account.
func (c *Client) DeleteCurrentUser(ctx context.Context) error {
	return c.do(ctx, "delete_user", http.MethodDelete, "/users/me", "", nil, nil)
}

// ProjectStats fetches the budget/usage snapshot for one project.
func (c *Client) ProjectStats(ctx context.Context, id int) (domain.ProjectStats, error) {
	var dto statsDTO
	if err := c.getJSON(ctx, "project_stats", fmt.Sprintf("/v1/projects/%d/stats", id), &dto); err != nil {
		return domain.ProjectStats{}, err
	}
	return domain.ProjectStats{
		ProjectName:   dto.ProjectName,
		MonthlyBudget: dto.MonthlyBudget,
		CurrentUsage:  dto.CurrentUsage,
	}, nil
}

// ProjectAnalytics fetches the 30-day analytics document for one project.
func (c *Client) ProjectAnalytics(ctx context.Context, id int) (domain.ProjectAnalytics, error) {
	var dto analyticsDTO
	if err := c.getJSON(ctx, "project_analytics", fmt.Sprintf("/v1/projects/%d/analytics", id), &dto); err != nil {
		return domain.ProjectAnalytics{}, err
	}

	series := make([]domain.DailyUsage, 0, len(dto.UsageLast30Days))
	for _, p := range dto.UsageLast30Days {
		date, err := parseUsageDate(p.Date)
		if err != nil {
			return domain.ProjectAnalytics{}, fmt.Errorf("project_analytics: %w", err)
		}
		series = append(series, domain.DailyUsage{Date: date, Cost: p.Cost})
	}
	domain.SortChronological(series)

	return domain.ProjectAnalytics{
		TotalRequests:         dto.TotalRequests,
		AverageCostPerRequest: dto.AverageCostPerRequest,
		UsageLast30Days:       series,
	}, nil
}

// ProjectModelAnalytics fetches the per-model usage breakdown.
func (c *Client) ProjectModelAnalytics(ctx context.Context, id int) ([]domain.ModelUsage, error) {
	var dtos []modelUsageDTO
	if err := c.getJSON(ctx, "project_model_analytics", fmt.Sprintf("/v1/projects/%d/analytics/models", id), &dtos); err != nil {
		return nil, err
	}
	models := make([]domain.ModelUsage, 0, len(dtos))
	for _, d := range dtos {
		models = append(models, domain.ModelUsage{Model: d.Model, Requests: d.Requests, Cost: d.Cost})
	}
	return models, nil
}

// UpdateProjectBudget commits a new monthly budget. Callers reread stats
// afterwards instead of trusting the request payload.
func (c *Client) UpdateProjectBudget(ctx context.Context, id, amount int) error {
	return c.sendJSON(ctx, "update_budget", http.MethodPut,
		fmt.Sprintf("/v1/projects/%d/budget", id), map[string]int{"monthly_budget": amount}, nil)
}

// parseUsageDate accepts both day-granular and full RFC 3339 timestamps.
func parseUsageDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse usage date %q: %w", s, err)
	}
	return t, nil
}
