package view

import "github.com/sentinelhq/sentinel/internal/usecase/session"

// Guard gates a protected view on the session state. While the session
// is still initializing, rendering is suspended and no fetch may be
// issued. An unauthenticated visitor is sent to the login view, again
// without fetching. Callers re-run the guard whenever the session
// snapshot changes, so a logout elsewhere redirects every open view.
func Guard(s session.Session) Outcome {
	switch {
	case s.Initializing():
		return Pending()
	case !s.Authenticated():
		return RedirectTo(RouteLogin)
	default:
		return Proceed()
	}
}
