// Package view holds the navigable views of the dashboard and the
// route guard that gates the protected ones. Navigation is a value:
// views return an Outcome and the shell interprets it, so no view ever
// drives navigation by side effect.
package view

import "fmt"

// Route identifies a navigable view.
type Route string

// Application routes.
const (
	RouteLogin          Route = "/login"
	RouteSignup         Route = "/signup"
	RouteForgotPassword Route = "/forgot-password"
	RouteResetPassword  Route = "/reset-password"
	RouteDashboard      Route = "/dashboard"
	RouteSettings       Route = "/settings"
)

// ProjectRoute returns the detail route for one project.
func ProjectRoute(id int) Route {
	return Route(fmt.Sprintf("/project/%d", id))
}
