package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"depmap/internal/auth"
	"depmap/internal/config"
	"depmap/internal/engine"
	"depmap/internal/logging"
)

// fakeHost serves the git host endpoints for one in-memory repository.
func fakeHost(files map[string]string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/git/trees/", func(w http.ResponseWriter, r *http.Request) {
		type entry struct {
			Path string `json:"path"`
			Type string `json:"type"`
		}
		var entries []entry
		for path := range files {
			entries = append(entries, entry{Path: path, Type: "blob"})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"tree": entries})
	})
	mux.HandleFunc("/repos/acme/api/contents/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/repos/acme/api/contents/")
		content, ok := files[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content":  content,
			"encoding": "utf-8",
		})
	})
	return mux
}

func newTestServer(t *testing.T, tokenHash string) *Server {
	t.Helper()

	host := httptest.NewServer(fakeHost(map[string]string{
		"src/Leaf.java": "public class Leaf {\n}",
	}))
	t.Cleanup(host.Close)

	cfg := config.DefaultConfig()
	cfg.GitHost.BaseURL = host.URL
	cfg.Cache.Persist = false

	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
	eng, err := engine.New(t.TempDir(), cfg, logger)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	return NewServer("127.0.0.1:0", tokenHash, eng, logger)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestRootListsEndpoints(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "POST /analyze") {
		t.Error("root should list the analyze endpoint")
	}

	if rec := doRequest(t, s, http.MethodGet, "/no-such-path", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodPost, "/analyze", `{
		"repositories": ["acme/api"],
		"targetRepo": "acme/api",
		"targetFile": "src/Leaf.java"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var graph struct {
		Metadata struct {
			NodeCount int `json:"nodeCount"`
			LinkCount int `json:"linkCount"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&graph); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if graph.Metadata.NodeCount != 1 || graph.Metadata.LinkCount != 0 {
		t.Errorf("got %d nodes %d links, want 1/0", graph.Metadata.NodeCount, graph.Metadata.LinkCount)
	}

	if rec := doRequest(t, s, http.MethodGet, "/analyze", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestAnalyzeBadRequests(t *testing.T) {
	s := newTestServer(t, "")

	cases := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", "{", "VALIDATION_FAILED"},
		{"bad target repo", `{"targetRepo": "garbage", "targetFile": "a.java"}`, "VALIDATION_FAILED"},
		{"missing target file", `{"repositories": ["acme/api"], "targetRepo": "acme/api"}`, "VALIDATION_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/analyze", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp ErrorResponse
			json.NewDecoder(rec.Body).Decode(&resp)
			if resp.Code != tc.code {
				t.Errorf("code = %q, want %q", resp.Code, tc.code)
			}
		})
	}
}

func TestAnalyzeRootNotFound(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodPost, "/analyze", `{
		"repositories": ["acme/api"],
		"targetRepo": "acme/api",
		"targetFile": "src/Missing.java"
	}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != "ROOT_NOT_FOUND" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestListDirectoryEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/repos/tree?repo=acme/api&dir=src", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Repository string `json:"repository"`
		Entries    []struct {
			Path string `json:"path"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Path != "src/Leaf.java" {
		t.Errorf("entries = %v", resp.Entries)
	}
}

func TestCacheEndpoints(t *testing.T) {
	s := newTestServer(t, "")

	if rec := doRequest(t, s, http.MethodGet, "/cache/stats", ""); rec.Code != http.StatusOK {
		t.Errorf("stats status = %d", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodPost, "/cache/clean", ""); rec.Code != http.StatusOK {
		t.Errorf("clean status = %d", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodPost, "/cache/clear", ""); rec.Code != http.StatusOK {
		t.Errorf("clear status = %d", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodGet, "/cache/clear", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET clear status = %d, want 405", rec.Code)
	}
}

func TestAuthEnforcement(t *testing.T) {
	token, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	s := newTestServer(t, hash)

	// Health stays open
	if rec := doRequest(t, s, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want open", rec.Code)
	}

	// No token
	if rec := doRequest(t, s, http.MethodGet, "/cache/stats", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	// Wrong token
	req := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	req.Header.Set("Authorization", "Bearer dm_sk_wrong")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	// Valid token
	req = httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}
}
