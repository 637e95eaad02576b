package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Form page; also the OAuth redirect landing
	RouteIndex = "/"

	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	// RouteReauth is where the page lands once the post-submit delay expires
	RouteReauth = "/reauth"

	RouteSubmit = "/submit"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
