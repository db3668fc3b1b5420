// Package session owns the authentication state of the running
// application: whether a user is signed in, and the login/logout
// transitions that change it.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State is the session lifecycle phase.
type State string

// Session states. Exactly one holds at any time.
const (
	StateInitializing    State = "initializing"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Session is an immutable snapshot of the controller state. Once the
// state is resolved, Authenticated() mirrors token presence in the store.
type Session struct {
	State State
}

// Initializing reports whether the startup credential check has not run yet.
func (s Session) Initializing() bool { return s.State == StateInitializing }

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool { return s.State == StateAuthenticated }

// Controller owns the session state machine. It is the only writer of
// the credential store; login and logout each complete their
// read-modify-write under one lock so concurrent readers never observe
// a half-updated session.
type Controller struct {
	mu       sync.Mutex
	state    State
	resolved bool

	store  CredentialStore
	auth   Authenticator
	logger *zap.Logger
}

// NewController creates a controller in the Initializing state.
func NewController(store CredentialStore, auth Authenticator, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		state:  StateInitializing,
		store:  store,
		auth:   auth,
		logger: logger,
	}
}

// Resolve performs the one-time startup credential check: a stored token
// means Authenticated, otherwise Unauthenticated. Calling it again
// returns the current snapshot without re-reading the store.
func (c *Controller) Resolve() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.resolved {
		if _, ok := c.store.Get(); ok {
			c.state = StateAuthenticated
		} else {
			c.state = StateUnauthenticated
		}
		c.resolved = true
		c.logger.Debug("session resolved", zap.String("state", string(c.state)))
	}
	return Session{State: c.state}
}

// Current returns an immutable snapshot of the session.
func (c *Controller) Current() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{State: c.state}
}

// Login authenticates against the backend and, on success, stores the
// returned token and flips to Authenticated. On failure the state and
// the store are untouched. A repeated login overwrites the previous
// token; last write wins.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	// The network call happens outside the lock; only the commit is atomic.
	token, err := c.auth.Authenticate(ctx, email, password)
	if err != nil {
		c.logger.Info("login rejected", zap.Error(err))
		return fmt.Errorf("login: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Set(token); err != nil {
		return fmt.Errorf("login: store credential: %w", err)
	}
	c.state = StateAuthenticated
	c.resolved = true
	c.logger.Info("login succeeded")
	return nil
}

// Logout unconditionally clears the credential store and flips to
// Unauthenticated. It never fails: a store error is logged and the
// state still changes, failing closed.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		c.logger.Warn("clearing credential store failed", zap.Error(err))
	}
	c.state = StateUnauthenticated
	c.resolved = true
	c.logger.Info("logged out")
}
