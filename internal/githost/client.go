package githost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"depmap/internal/errors"
	"depmap/internal/logging"
)

const (
	// maxBodySize caps response bodies; single source files and tree
	// listings fit comfortably under this.
	maxBodySize = 32 << 20

	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	retryBaseDelay    = 200 * time.Millisecond
	retryMaxDelay     = 5 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the code-hosting REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	logger     *logging.Logger
}

// NewClient creates a code-hosting client.
func NewClient(opts Options, logger *logging.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// ListTree fetches the recursive file listing for repo at its branch.
func (c *Client) ListTree(ctx context.Context, repo Repository) (*Tree, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s",
		url.PathEscape(repo.Org), url.PathEscape(repo.Name), url.PathEscape(repo.Branch()))
	query := url.Values{"recursive": {"1"}}

	data, status, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &NotFoundError{Repo: repo}
	}
	if status >= 400 {
		return nil, c.upstreamError(repo, "tree listing", status, data)
	}

	var raw struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Size int64  `json:"size"`
			SHA  string `json:"sha"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode tree listing for %s: %w", repo.FullName(), err)
	}

	tree := &Tree{Truncated: raw.Truncated}
	for _, e := range raw.Tree {
		tree.Entries = append(tree.Entries, TreeEntry{
			Path: e.Path,
			Type: e.Type,
			Size: e.Size,
			SHA:  e.SHA,
		})
	}

	if tree.Truncated {
		c.logger.Warn("Tree listing truncated by upstream", map[string]interface{}{
			"repo":    repo.FullName(),
			"entries": len(tree.Entries),
		})
	}
	return tree, nil
}

// GetContent fetches one file from repo. ref overrides the repository
// branch when non-empty.
func (c *Client) GetContent(ctx context.Context, repo Repository, filePath, ref string) (*Content, error) {
	if ref == "" {
		ref = repo.Branch()
	}
	reqPath := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(repo.Org), url.PathEscape(repo.Name), escapePath(filePath))
	query := url.Values{"ref": {ref}}

	data, status, err := c.get(ctx, reqPath, query)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &NotFoundError{Repo: repo, Path: filePath}
	}
	if status >= 400 {
		return nil, c.upstreamError(repo, "content fetch", status, data)
	}

	var raw struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
		SHA      string `json:"sha"`
		Size     int64  `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode content of %s:%s: %w", repo.FullName(), filePath, err)
	}

	var blob []byte
	switch raw.Encoding {
	case "base64":
		// The API wraps base64 at 60 columns
		blob, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(raw.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode blob of %s:%s: %w", repo.FullName(), filePath, err)
		}
	default:
		blob = []byte(raw.Content)
	}

	return &Content{
		Data:     blob,
		SHA:      raw.SHA,
		Size:     raw.Size,
		IsBinary: bytes.IndexByte(blob, 0) >= 0,
	}, nil
}

// get performs a GET with retry on network errors, 5xx, and 429. Client
// errors other than 429 are returned to the caller with the body intact.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << uint(attempt-1)
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
			c.logger.Debug("Retrying upstream request", map[string]interface{}{
				"url":     u,
				"attempt": attempt + 1,
			})
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "depmap-client/1.0")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}

		if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
			c.logger.Debug("Upstream rate limit", map[string]interface{}{
				"remaining": remaining,
				"url":       u,
			})
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("upstream returned %d", resp.StatusCode)
			continue
		}

		return data, resp.StatusCode, nil
	}

	return nil, 0, errors.NewUpstream(
		fmt.Sprintf("request failed after %d retries", c.maxRetries), lastErr)
}

func (c *Client) upstreamError(repo Repository, op string, status int, body []byte) error {
	msg := fmt.Sprintf("%s for %s failed with status %d", op, repo.FullName(), status)
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		msg += ": " + parsed.Message
	}
	return errors.NewUpstream(msg, nil)
}

// escapePath escapes each path segment while preserving separators.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
