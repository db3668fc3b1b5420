package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Settings is the account settings view. Its only action is the
// permanent account deletion behind a confirmation step.
type Settings struct {
	api      AccountAPI
	sessions Sessions
	logger   *zap.Logger
}

// NewSettings creates the settings view.
func NewSettings(api AccountAPI, sessions Sessions, logger *zap.Logger) *Settings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settings{api: api, sessions: sessions, logger: logger}
}

// Load guards the view. Settings issues no data fetch of its own.
func (s *Settings) Load(_ context.Context) Outcome {
	return Guard(s.sessions.Current())
}

// DeleteAccount permanently removes the account, then routes through the
// central logout so the credential cleanup and redirect live in one
// place. On failure the session is intact and the view stays put.
func (s *Settings) DeleteAccount(ctx context.Context) (Outcome, error) {
	if err := s.api.DeleteCurrentUser(ctx); err != nil {
		s.logger.Warn("account deletion failed", zap.Error(err))
		return Proceed(), fmt.Errorf("delete account: %w", err)
	}

	s.sessions.Logout()
	return RedirectTo(RouteLogin), nil
}
