package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Unauthenticated: the handler validates the token itself
	s.RegisterRouteFunc("POST "+RoutePasskeyLogin, ChainMiddleware(s.PasskeyLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSessionRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("DELETE "+RouteSession, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Session required
	s.RegisterRouteFunc("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteFunc("GET "+RouteSessions, ChainMiddleware(s.ActiveSessionsHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteFunc("POST "+RouteSessionRevokeAll, ChainMiddleware(s.RevokeAllHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteFunc("POST "+RoutePasskeys, ChainMiddleware(s.RegisterPasskeyHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteFunc("GET "+RoutePasskeys, ChainMiddleware(s.ListPasskeysHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteFunc("GET "+RouteKyc, ChainMiddleware(s.KycHandler(), s.APIMiddleware(s.RequireSession())...))

	// Admin session plus admin credential
	s.RegisterRouteFunc("GET "+RouteAdminRotation, ChainMiddleware(s.RotationStatusHandler(), s.APIMiddleware(s.RequireAdmin())...))
}
