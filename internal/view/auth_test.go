package view

import (
	"context"
	"errors"
	"testing"

	"github.com/sentinelhq/sentinel/internal/domain"
	"github.com/sentinelhq/sentinel/internal/usecase/session"
)

func TestSignIn(t *testing.T) {
	t.Run("success redirects to dashboard", func(t *testing.T) {
		store := &memStore{}
		sessions := session.NewController(store, stubAuth{token: "tok"}, nil)
		sessions.Resolve()
		a := NewAuth(&mockAccountAPI{}, sessions, nil)

		out, err := a.SignIn(context.Background(), "a@b.c", "pw")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if route, ok := out.Redirect(); !ok || route != RouteDashboard {
			t.Fatalf("outcome = %+v, want redirect to %s", out, RouteDashboard)
		}
		if token, ok := store.Get(); !ok || token != "tok" {
			t.Fatalf("store = %q, %v", token, ok)
		}
	})

	t.Run("failure stays on the form", func(t *testing.T) {
		sessions := session.NewController(&memStore{}, stubAuth{err: domain.ErrInvalidCredentials}, nil)
		sessions.Resolve()
		a := NewAuth(&mockAccountAPI{}, sessions, nil)

		out, err := a.SignIn(context.Background(), "a@b.c", "bad")
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("error = %v, want ErrInvalidCredentials", err)
		}
		if !out.IsProceed() {
			t.Fatalf("outcome = %+v, want proceed (render error on form)", out)
		}
		if sessions.Current().Authenticated() {
			t.Fatal("failed login flipped session state")
		}
	})

	t.Run("already signed in skips straight to dashboard", func(t *testing.T) {
		sessions := authedSessions(t, &memStore{})
		a := NewAuth(&mockAccountAPI{}, sessions, nil)

		out, err := a.SignIn(context.Background(), "", "")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if route, ok := out.Redirect(); !ok || route != RouteDashboard {
			t.Fatalf("outcome = %+v, want redirect to %s", out, RouteDashboard)
		}
	})
}

func TestSignUp(t *testing.T) {
	t.Run("creates account then logs in", func(t *testing.T) {
		api := &mockAccountAPI{}
		store := &memStore{}
		sessions := session.NewController(store, stubAuth{token: "tok-new"}, nil)
		sessions.Resolve()
		a := NewAuth(api, sessions, nil)

		out, err := a.SignUp(context.Background(), "new@b.c", "pw")
		if err != nil {
			t.Fatalf("SignUp: %v", err)
		}
		if api.createCalls != 1 {
			t.Fatalf("createCalls = %d, want 1", api.createCalls)
		}
		if route, ok := out.Redirect(); !ok || route != RouteDashboard {
			t.Fatalf("outcome = %+v, want redirect to %s", out, RouteDashboard)
		}
		if !sessions.Current().Authenticated() {
			t.Fatal("signup did not log the new user in")
		}
	})

	t.Run("duplicate email surfaces error without login", func(t *testing.T) {
		api := &mockAccountAPI{createErr: domain.ErrEmailTaken}
		sessions := session.NewController(&memStore{}, stubAuth{token: "tok"}, nil)
		sessions.Resolve()
		a := NewAuth(api, sessions, nil)

		out, err := a.SignUp(context.Background(), "dup@b.c", "pw")
		if !errors.Is(err, domain.ErrEmailTaken) {
			t.Fatalf("error = %v, want ErrEmailTaken", err)
		}
		if !out.IsProceed() {
			t.Fatalf("outcome = %+v, want proceed", out)
		}
		if sessions.Current().Authenticated() {
			t.Fatal("failed signup left an authenticated session")
		}
	})
}

func TestRequestReset(t *testing.T) {
	t.Run("backend message passed through", func(t *testing.T) {
		api := &mockAccountAPI{forgotMsg: "reset link sent"}
		a := NewAuth(api, anonSessions(t), nil)

		if msg := a.RequestReset(context.Background(), "a@b.c"); msg != "reset link sent" {
			t.Fatalf("message = %q", msg)
		}
	})

	t.Run("failure hides behind the generic message", func(t *testing.T) {
		api := &mockAccountAPI{forgotErr: errors.New("boom")}
		a := NewAuth(api, anonSessions(t), nil)

		if msg := a.RequestReset(context.Background(), "unknown@b.c"); msg != ResetLinkMessage {
			t.Fatalf("message = %q, want the generic reset text", msg)
		}
	})
}

func TestCompleteReset(t *testing.T) {
	t.Run("mismatched confirmation rejected locally", func(t *testing.T) {
		api := &mockAccountAPI{}
		a := NewAuth(api, anonSessions(t), nil)

		_, err := a.CompleteReset(context.Background(), "tok", "new", "different")
		if !errors.Is(err, domain.ErrPasswordMismatch) {
			t.Fatalf("error = %v, want ErrPasswordMismatch", err)
		}
		if api.resetCalls != 0 {
			t.Fatal("reset call issued despite local mismatch")
		}
	})

	t.Run("success returns the backend message", func(t *testing.T) {
		api := &mockAccountAPI{resetMsg: "password updated"}
		a := NewAuth(api, anonSessions(t), nil)

		msg, err := a.CompleteReset(context.Background(), "tok", "new", "new")
		if err != nil {
			t.Fatalf("CompleteReset: %v", err)
		}
		if msg != "password updated" {
			t.Fatalf("message = %q", msg)
		}
	})

	t.Run("stale token surfaces the domain error", func(t *testing.T) {
		api := &mockAccountAPI{resetErr: domain.ErrResetTokenInvalid}
		a := NewAuth(api, anonSessions(t), nil)

		if _, err := a.CompleteReset(context.Background(), "stale", "new", "new"); !errors.Is(err, domain.ErrResetTokenInvalid) {
			t.Fatalf("error = %v, want ErrResetTokenInvalid", err)
		}
	})
}
