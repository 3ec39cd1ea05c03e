package api

import (
	"encoding/json"
	"net/http"

	"depmap/internal/depgraph"
	"depmap/internal/githost"
	"depmap/internal/version"
)

// AnalyzeRequest is the wire form of an analysis request. Repositories are
// org/name[@branch] specs; optional fields default server-side (maxDepth
// from configuration, method level on).
type AnalyzeRequest struct {
	Repositories   []string `json:"repositories"`
	TargetRepo     string   `json:"targetRepo"`
	TargetFile     string   `json:"targetFile"`
	MaxDepth       *int     `json:"maxDepth,omitempty"`
	MethodLevel    *bool    `json:"includeMethodLevel,omitempty"`
	IncludeContent bool     `json:"includeContent,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteJSON(w, ErrorResponse{Error: "not found", Code: "NOT_FOUND"}, http.StatusNotFound)
		return
	}

	WriteJSON(w, map[string]interface{}{
		"service": "depmap",
		"version": version.Version,
		"endpoints": []string{
			"POST /analyze",
			"GET /repos/tree",
			"GET /cache/stats",
			"POST /cache/clean",
			"POST /cache/clear",
			"GET /health",
		},
	}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	}, http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	target, err := githost.ParseRepository(req.TargetRepo)
	if err != nil {
		BadRequest(w, "targetRepo: "+err.Error())
		return
	}
	repos := make([]githost.Repository, 0, len(req.Repositories))
	for _, spec := range req.Repositories {
		repo, err := githost.ParseRepository(spec)
		if err != nil {
			BadRequest(w, "repositories: "+err.Error())
			return
		}
		repos = append(repos, repo)
	}

	engineReq := depgraph.Request{
		Repositories:   repos,
		TargetRepo:     target,
		TargetFile:     req.TargetFile,
		MethodLevel:    true,
		IncludeContent: req.IncludeContent,
	}
	if req.MaxDepth != nil {
		engineReq.MaxDepth = *req.MaxDepth
	}
	if req.MethodLevel != nil {
		engineReq.MethodLevel = *req.MethodLevel
	}

	graph, err := s.engine.Analyze(r.Context(), engineReq)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, graph, http.StatusOK)
}

func (s *Server) handleListDirectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	repo, err := githost.ParseRepository(r.URL.Query().Get("repo"))
	if err != nil {
		BadRequest(w, "repo: "+err.Error())
		return
	}

	entries, err := s.engine.ListDirectory(r.Context(), repo, r.URL.Query().Get("dir"))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, map[string]interface{}{
		"repository": repo.FullName(),
		"entries":    entries,
	}, http.StatusOK)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	stats, err := s.engine.CacheStats()
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, stats, http.StatusOK)
}

func (s *Server) handleCacheClean(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	removed, err := s.engine.CleanExpired()
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]int{"removed": removed}, http.StatusOK)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	if err := s.engine.ClearAll(); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]bool{"cleared": true}, http.StatusOK)
}

func methodNotAllowed(w http.ResponseWriter) {
	WriteJSON(w, ErrorResponse{
		Error: "method not allowed",
		Code:  "METHOD_NOT_ALLOWED",
	}, http.StatusMethodNotAllowed)
}
