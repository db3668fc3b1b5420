package view

import (
	"context"
	"testing"
	"time"

	"github.com/sentinelhq/sentinel/internal/domain"
	"github.com/sentinelhq/sentinel/internal/usecase/session"
)

// --- Shared fixtures ---

// memStore is an in-memory credential store.
type memStore struct {
	token string
	has   bool
}

func (m *memStore) Get() (string, bool) { return m.token, m.has }
func (m *memStore) Set(token string) error {
	m.token, m.has = token, true
	return nil
}
func (m *memStore) Clear() error {
	m.token, m.has = "", false
	return nil
}

// stubAuth satisfies session.Authenticator with a fixed answer.
type stubAuth struct {
	token string
	err   error
}

func (s stubAuth) Authenticate(context.Context, string, string) (string, error) {
	return s.token, s.err
}

// authedSessions returns a resolved, authenticated controller over store.
func authedSessions(t *testing.T, store *memStore) *session.Controller {
	t.Helper()
	store.token, store.has = "tok-test", true
	c := session.NewController(store, stubAuth{token: "tok-test"}, nil)
	if !c.Resolve().Authenticated() {
		t.Fatal("fixture: controller did not resolve authenticated")
	}
	return c
}

// anonSessions returns a resolved, unauthenticated controller.
func anonSessions(t *testing.T) *session.Controller {
	t.Helper()
	c := session.NewController(&memStore{}, stubAuth{}, nil)
	if c.Resolve().Authenticated() {
		t.Fatal("fixture: controller resolved authenticated")
	}
	return c
}

// --- API mocks ---

type mockProjectAPI struct {
	projects  []domain.Project
	listErr   error
	listCalls int

	nextID     int
	createErr  error
	createName string

	deleteErr   error
	deleteCalls int
}

func (m *mockProjectAPI) ListProjects(context.Context) ([]domain.Project, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.projects, nil
}

func (m *mockProjectAPI) CreateProject(_ context.Context, name string) (domain.Project, error) {
	if m.createErr != nil {
		return domain.Project{}, m.createErr
	}
	m.nextID++
	m.createName = name
	return domain.Project{ID: m.nextID + 100, Name: name, SentinelKey: "sntl_test"}, nil
}

func (m *mockProjectAPI) DeleteProject(context.Context, int) error {
	m.deleteCalls++
	return m.deleteErr
}

type mockAnalyticsAPI struct {
	stats      domain.ProjectStats
	statsErr   error
	statsCalls int

	analytics    domain.ProjectAnalytics
	analyticsErr error

	models    []domain.ModelUsage
	modelsErr error

	updateErr     error
	updateCalls   int
	updatedAmount int
}

func (m *mockAnalyticsAPI) ProjectStats(context.Context, int) (domain.ProjectStats, error) {
	m.statsCalls++
	if m.statsErr != nil {
		return domain.ProjectStats{}, m.statsErr
	}
	return m.stats, nil
}

func (m *mockAnalyticsAPI) ProjectAnalytics(context.Context, int) (domain.ProjectAnalytics, error) {
	if m.analyticsErr != nil {
		return domain.ProjectAnalytics{}, m.analyticsErr
	}
	return m.analytics, nil
}

func (m *mockAnalyticsAPI) ProjectModelAnalytics(context.Context, int) ([]domain.ModelUsage, error) {
	if m.modelsErr != nil {
		return nil, m.modelsErr
	}
	return m.models, nil
}

func (m *mockAnalyticsAPI) UpdateProjectBudget(_ context.Context, _ int, amount int) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedAmount = amount
	// The fake backend derives the next stats snapshot from the committed
	// budget, like the real one would.
	m.stats.MonthlyBudget = amount
	return nil
}

type mockAccountAPI struct {
	createErr   error
	createCalls int

	forgotMsg   string
	forgotErr   error
	forgotCalls int

	resetMsg   string
	resetErr   error
	resetCalls int

	deleteUserErr   error
	deleteUserCalls int
}

func (m *mockAccountAPI) CreateAccount(context.Context, string, string) error {
	m.createCalls++
	return m.createErr
}

func (m *mockAccountAPI) RequestPasswordReset(context.Context, string) (string, error) {
	m.forgotCalls++
	return m.forgotMsg, m.forgotErr
}

func (m *mockAccountAPI) ResetPassword(context.Context, string, string) (string, error) {
	m.resetCalls++
	return m.resetMsg, m.resetErr
}

func (m *mockAccountAPI) DeleteCurrentUser(context.Context) error {
	m.deleteUserCalls++
	return m.deleteUserErr
}

func sampleProjects() []domain.Project {
	return []domain.Project{
		{ID: 1, Name: "Alpha", SentinelKey: "sntl_a"},
		{ID: 2, Name: "Beta", SentinelKey: "sntl_b"},
	}
}

func sampleAnalytics() domain.ProjectAnalytics {
	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	return domain.ProjectAnalytics{
		TotalRequests:         42,
		AverageCostPerRequest: 0.25,
		UsageLast30Days: []domain.DailyUsage{
			{Date: base, Cost: 1},
			{Date: base.AddDate(0, 0, 1), Cost: 2},
		},
	}
}
