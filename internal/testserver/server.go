// Package testserver is an in-memory stand-in for the Sentinel metering
// backend, used by integration tests. It speaks the same wire surface
// the real backend does: form-encoded token endpoint, JSON everywhere
// else, bearer tokens on every protected route.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type account struct {
	password string
	projects []*project
}

type project struct {
	id     int
	name   string
	key    string
	budget int
	usage  float64
}

// Server is the fake backend. All state lives in memory and is guarded
// by one mutex; handlers are intentionally simple.
type Server struct {
	HTTP *httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account
	tokens      map[string]string // bearer token -> email
	resetTokens map[string]string // reset token -> email
	nextID      int
}

// New starts a fake backend that stops with the test.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		resetTokens: make(map[string]string),
	}

	r := chi.NewRouter()
	r.Post("/auth/token", s.handleToken)
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/forgot-password", s.handleForgotPassword)
	r.Post("/auth/reset-password", s.handleResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Delete("/projects/{id}", s.handleDeleteProject)
		r.Delete("/users/me", s.handleDeleteUser)
		r.Get("/v1/projects/{id}/stats", s.handleStats)
		r.Get("/v1/projects/{id}/analytics", s.handleAnalytics)
		r.Get("/v1/projects/{id}/analytics/models", s.handleModelAnalytics)
		r.Put("/v1/projects/{id}/budget", s.handleUpdateBudget)
	})

	s.HTTP = httptest.NewServer(r)
	t.Cleanup(s.HTTP.Close)
	return s
}

// URL returns the backend base URL.
func (s *Server) URL() string { return s.HTTP.URL }

// --- Test seams ---

// AddUser registers an account directly, bypassing the signup endpoint.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{password: password}
}

// RevokeAllTokens invalidates every issued bearer token, simulating
// server-side session expiry.
func (s *Server) RevokeAllTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// LastResetToken returns the most recent reset token minted for email.
func (s *Server) LastResetToken(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, owner := range s.resetTokens {
		if owner == email {
			return token, true
		}
	}
	return "", false
}

// SeedProject creates a project with known stats, bypassing the API.
func (s *Server) SeedProject(email, name string, budget int, usage float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[email]
	if acct == nil {
		panic(fmt.Sprintf("testserver: unknown account %q", email))
	}
	s.nextID++
	acct.projects = append(acct.projects, &project{
		id:     s.nextID,
		name:   name,
		key:    "sntl_" + uuid.NewString(),
		budget: budget,
		usage:  usage,
	})
	return s.nextID
}

// --- Middleware ---

func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			writeDetail(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		s.mu.Lock()
		email, ok := s.tokens[auth[len(prefix):]]
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		r.Header.Set("X-Test-User", email)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) caller(r *http.Request) string { return r.Header.Get("X-Test-User") }

// --- Auth handlers ---

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form body")
		return
	}
	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok || acct.password != password {
		writeDetail(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = email
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "email already registered")
		return
	}
	s.accounts[req.Email] = &account{password: req.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"email": req.Email})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.resetTokens[uuid.NewString()] = req.Email
	}
	s.mu.Unlock()

	// Same answer whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If an account with that email exists, a password reset link has been sent.",
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resetTokens[req.Token]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	delete(s.resetTokens, req.Token)
	s.accounts[email].password = req.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully."})
}

// --- Project handlers ---

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[s.caller(r)]

	out := make([]map[string]any, 0, len(acct.projects))
	for _, p := range acct.projects {
		out = append(out, projectJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeDetail(w, http.StatusBadRequest, "project name required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[s.caller(r)]
	s.nextID++
	p := &project{
		id:   s.nextID,
		name: req.Name,
		key:  "sntl_" + uuid.NewString(),
	}
	acct.projects = append(acct.projects, p)
	writeJSON(w, http.StatusOK, projectJSON(p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid project id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[s.caller(r)]
	for i, p := range acct.projects {
		if p.id == id {
			acct.projects = append(acct.projects[:i], acct.projects[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "project not found")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email := s.caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, email)
	for token, owner := range s.tokens {
		if owner == email {
			delete(s.tokens, token)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Analytics handlers ---

func (s *Server) findProject(r *http.Request) (*project, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return nil, false
	}
	acct := s.accounts[s.caller(r)]
	for _, p := range acct.projects {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.findProject(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_name":   p.name,
		"monthly_budget": p.budget,
		"current_usage":  p.usage,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.findProject(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "project not found")
		return
	}

	// Spread the current usage over a deterministic 30-day series.
	series := make([]map[string]any, 0, 30)
	start := time.Now().UTC().AddDate(0, 0, -29)
	for i := 0; i < 30; i++ {
		series = append(series, map[string]any{
			"date": start.AddDate(0, 0, i).Format("2006-01-02"),
			"cost": p.usage / 30,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_requests":           int(p.usage * 10),
		"average_cost_per_request": 0.1,
		"usage_last_30_days":       series,
	})
}

func (s *Server) handleModelAnalytics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.findProject(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{
		{"model": "gpt-4o", "requests": int(p.usage * 6), "cost": p.usage * 0.7},
		{"model": "gpt-4o-mini", "requests": int(p.usage * 4), "cost": p.usage * 0.3},
	})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonthlyBudget *int `json:"monthly_budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MonthlyBudget == nil || *req.MonthlyBudget < 0 {
		writeDetail(w, http.StatusBadRequest, "monthly_budget must be a non-negative integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.findProject(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "project not found")
		return
	}
	p.budget = *req.MonthlyBudget
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func projectJSON(p *project) map[string]any {
	return map[string]any{"id": p.id, "name": p.name, "sentinel_key": p.key}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
