package githost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	deperrors "depmap/internal/errors"
	"depmap/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel})
}

func newTestClient(serverURL string) *Client {
	return NewClient(Options{
		BaseURL:    serverURL,
		Token:      "test-token",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	}, testLogger())
}

func TestParseRepository(t *testing.T) {
	tests := []struct {
		spec    string
		want    Repository
		wantErr bool
	}{
		{"acme/api", Repository{Org: "acme", Name: "api"}, false},
		{"acme/api@develop", Repository{Org: "acme", Name: "api", DefaultBranch: "develop"}, false},
		{"acme", Repository{}, true},
		{"a/b/c", Repository{}, true},
		{"/x", Repository{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseRepository(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRepositoryBranch(t *testing.T) {
	if (Repository{Org: "a", Name: "b"}).Branch() != "main" {
		t.Error("default branch should be main")
	}
	if (Repository{Org: "a", Name: "b", DefaultBranch: "trunk"}).Branch() != "trunk" {
		t.Error("explicit branch should win")
	}
}

func TestListTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/api/git/trees/main" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") != "1" {
			t.Error("expected recursive=1")
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Error("missing auth header")
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tree": []map[string]interface{}{
				{"path": "src/FooController.java", "type": "blob", "size": 1200, "sha": "abc"},
				{"path": "src", "type": "tree", "sha": "def"},
			},
			"truncated": false,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	tree, err := client.ListTree(context.Background(), Repository{Org: "acme", Name: "api"})
	if err != nil {
		t.Fatalf("ListTree failed: %v", err)
	}
	if len(tree.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(tree.Entries))
	}
	if tree.Entries[0].Path != "src/FooController.java" || tree.Entries[0].Type != "blob" {
		t.Errorf("entry = %+v", tree.Entries[0])
	}
	if tree.Truncated {
		t.Error("truncated should be false")
	}
}

func TestListTreeTruncatedPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tree":      []map[string]interface{}{},
			"truncated": true,
		})
	}))
	defer server.Close()

	tree, err := newTestClient(server.URL).ListTree(context.Background(), Repository{Org: "big", Name: "mono"})
	if err != nil {
		t.Fatalf("ListTree failed: %v", err)
	}
	if !tree.Truncated {
		t.Error("truncated flag should propagate")
	}
}

func TestListTreeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListTree(context.Background(), Repository{Org: "no", Name: "repo"})
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestGetContent(t *testing.T) {
	source := "public class FooController {}\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(source))
	// The API wraps base64 output in 60-column lines
	wrapped := encoded[:20] + "\n" + encoded[20:]

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/api/contents/src/FooController.java" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("ref = %q, want main", r.URL.Query().Get("ref"))
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":  wrapped,
			"encoding": "base64",
			"sha":      "abc123",
			"size":     len(source),
		})
	}))
	defer server.Close()

	content, err := newTestClient(server.URL).GetContent(context.Background(),
		Repository{Org: "acme", Name: "api"}, "src/FooController.java", "")
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if string(content.Data) != source {
		t.Errorf("data = %q", content.Data)
	}
	if content.SHA != "abc123" {
		t.Errorf("sha = %q", content.SHA)
	}
	if content.IsBinary {
		t.Error("text file flagged binary")
	}
}

func TestGetContentBinaryDetection(t *testing.T) {
	blob := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":  base64.StdEncoding.EncodeToString(blob),
			"encoding": "base64",
			"sha":      "bin",
			"size":     len(blob),
		})
	}))
	defer server.Close()

	content, err := newTestClient(server.URL).GetContent(context.Background(),
		Repository{Org: "acme", Name: "api"}, "logo.png", "")
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if !content.IsBinary {
		t.Error("binary blob not detected")
	}
}

func TestGetContentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetContent(context.Background(),
		Repository{Org: "acme", Name: "api"}, "missing.java", "")
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "oops", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tree":      []map[string]interface{}{{"path": "a.go", "type": "blob", "sha": "x"}},
			"truncated": false,
		})
	}))
	defer server.Close()

	tree, err := newTestClient(server.URL).ListTree(context.Background(), Repository{Org: "acme", Name: "api"})
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if len(tree.Entries) != 1 {
		t.Errorf("entries = %d", len(tree.Entries))
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestUpstreamErrorAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListTree(context.Background(), Repository{Org: "acme", Name: "api"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !deperrors.IsUpstream(err) {
		t.Errorf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
}

func TestAuthFailureIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListTree(context.Background(), Repository{Org: "acme", Name: "api"})
	if !deperrors.IsUpstream(err) {
		t.Errorf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
}

func TestCancellationStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).ListTree(ctx, Repository{Org: "acme", Name: "api"})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
