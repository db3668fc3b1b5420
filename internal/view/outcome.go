package view

type outcomeKind int

const (
	kindProceed outcomeKind = iota
	kindPending
	kindRedirect
)

// Outcome is the result of loading a view: proceed with rendering, keep
// showing a placeholder, or navigate somewhere else.
type Outcome struct {
	kind  outcomeKind
	route Route
}

// Proceed creates an outcome that lets the view render.
func Proceed() Outcome { return Outcome{kind: kindProceed} }

// Pending creates an outcome that suspends rendering behind a placeholder.
func Pending() Outcome { return Outcome{kind: kindPending} }

// RedirectTo creates an outcome that navigates to another route.
func RedirectTo(route Route) Outcome { return Outcome{kind: kindRedirect, route: route} }

// IsProceed reports whether the view may render.
func (o Outcome) IsProceed() bool { return o.kind == kindProceed }

// IsPending reports whether rendering is suspended.
func (o Outcome) IsPending() bool { return o.kind == kindPending }

// Redirect returns the navigation target, if this outcome is a redirect.
func (o Outcome) Redirect() (Route, bool) {
	return o.route, o.kind == kindRedirect
}
