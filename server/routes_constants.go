package server

// Route path constants
const (
	RouteHealth = "/health"

	// Passkeys
	RoutePasskeyLogin = "/api/v1/passkeys/login"
	RoutePasskeys     = "/api/v1/passkeys"

	// Sessions
	RouteSession          = "/api/v1/session"
	RouteSessionRefresh   = "/api/v1/session/refresh"
	RouteSessionRevokeAll = "/api/v1/session/revoke-all"
	RouteSessions         = "/api/v1/sessions"

	RouteKyc = "/api/v1/kyc"

	// Admin
	RouteAdminRotation = "/api/v1/admin/rotation"
)

// Header names
const (
	HeaderAdminCredential = "X-Admin-Credential"
	HeaderSessionRefresh  = "X-Session-Refresh"
	HeaderRequestID       = "X-Request-Id"
)
