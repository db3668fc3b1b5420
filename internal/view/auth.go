package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinelhq/sentinel/internal/domain"
)

// ResetLinkMessage is what the forgot-password view always reports.
// Failures show the same text as successes so the form never reveals
// whether an account exists.
const ResetLinkMessage = "If an account with that email exists, a password reset link has been sent."

// Auth wraps the public authentication views: login, signup,
// forgot-password and reset-password.
type Auth struct {
	api      AccountAPI
	sessions LoginSessions
	logger   *zap.Logger
}

// NewAuth creates the auth views.
func NewAuth(api AccountAPI, sessions LoginSessions, logger *zap.Logger) *Auth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auth{api: api, sessions: sessions, logger: logger}
}

// SignIn attempts a login. Success navigates to the dashboard; failure
// keeps the visitor on the login view with an error to render. A visitor
// who is already signed in skips straight to the dashboard.
func (a *Auth) SignIn(ctx context.Context, email, password string) (Outcome, error) {
	if a.sessions.Current().Authenticated() {
		return RedirectTo(RouteDashboard), nil
	}
	if err := a.sessions.Login(ctx, email, password); err != nil {
		return Proceed(), err
	}
	return RedirectTo(RouteDashboard), nil
}

// SignUp creates the account and immediately logs the new user in, so
// a successful signup lands on the dashboard like a successful login.
func (a *Auth) SignUp(ctx context.Context, email, password string) (Outcome, error) {
	if err := a.api.CreateAccount(ctx, email, password); err != nil {
		return Proceed(), fmt.Errorf("signup: %w", err)
	}
	if err := a.sessions.Login(ctx, email, password); err != nil {
		// Account exists but the follow-up login failed; the visitor can
		// sign in manually.
		return RedirectTo(RouteLogin), err
	}
	return RedirectTo(RouteDashboard), nil
}

// RequestReset asks the backend for a reset mail and returns the message
// to display. Errors are logged and swallowed behind the generic text.
func (a *Auth) RequestReset(ctx context.Context, email string) string {
	msg, err := a.api.RequestPasswordReset(ctx, email)
	if err != nil || msg == "" {
		a.logger.Debug("password reset request failed", zap.Error(err))
		return ResetLinkMessage
	}
	return msg
}

// CompleteReset finishes a password reset. A mismatched confirmation is
// rejected locally before any call is issued.
func (a *Auth) CompleteReset(ctx context.Context, token, newPassword, confirm string) (string, error) {
	if newPassword != confirm {
		return "", domain.ErrPasswordMismatch
	}
	msg, err := a.api.ResetPassword(ctx, token, newPassword)
	if err != nil {
		return "", err
	}
	return msg, nil
}
