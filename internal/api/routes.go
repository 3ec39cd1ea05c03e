package api

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health check, open even with auth enabled
	s.router.HandleFunc("/health", s.handleHealth)

	// Analysis
	s.router.HandleFunc("/analyze", s.handleAnalyze) // POST

	// Repository browsing
	s.router.HandleFunc("/repos/tree", s.handleListDirectory) // GET ?repo=org/name&dir=path

	// Cache maintenance
	s.router.HandleFunc("/cache/stats", s.handleCacheStats) // GET
	s.router.HandleFunc("/cache/clean", s.handleCacheClean) // POST
	s.router.HandleFunc("/cache/clear", s.handleCacheClear) // POST

	// Root endpoint
	s.router.HandleFunc("/", s.handleRoot)
}
