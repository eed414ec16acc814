// SPDX-License-Identifier: MPL-2.0

package modupdate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// maxTextResponseBytes bounds version and aux config responses (1 MB).
	maxTextResponseBytes = 1 << 20

	defaultUserAgent = "divineui-updater/dev"
	defaultTimeout   = 2 * time.Minute
)

type (
	// RateLimitError is returned when a GitHub host reports an exhausted quota.
	RateLimitError struct {
		Limit     int
		Remaining int
		ResetAt   time.Time
	}

	// StatusError is returned for any non-200 response.
	StatusError struct {
		URL        string // redacted
		StatusCode int
	}

	// Client fetches version files, aux configs and package archives over HTTP.
	Client struct {
		httpClient *http.Client
		userAgent  string
		token      string        // optional GitHub token, sent to GitHub hosts only
		timeout    time.Duration // applies to text fetches, not archive downloads
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// Error formats the rate limit details as a human-readable message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithToken sets a GitHub token. It is attached only to requests for GitHub
// hosts, never to third-party mirrors.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds each text fetch.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a Client with http.DefaultClient and a two minute
// text fetch timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  defaultUserAgent,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchText returns the body of rawURL with surrounding whitespace trimmed.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	body, err := c.FetchBytes(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// FetchBytes returns the body of rawURL, bounded to 1 MB.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", redactURL(rawURL), err)
	}
	if len(body) > maxTextResponseBytes {
		return nil, fmt.Errorf("reading %s: response exceeds %d bytes", redactURL(rawURL), maxTextResponseBytes)
	}
	return body, nil
}

// Download streams rawURL into dst and returns the number of bytes written.
// When progress is non-nil it is told the expected size and fed every chunk.
func (c *Client) Download(ctx context.Context, rawURL string, dst io.Writer, progress *Progress) (int64, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	w := dst
	if progress != nil {
		progress.Start(resp.ContentLength)
		defer progress.Finish()
		w = io.MultiWriter(dst, progress)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, fmt.Errorf("downloading %s: got %d of %d bytes", redactURL(rawURL), n, resp.ContentLength)
	}
	return n, nil
}

// get issues a GET request and returns the response only for status 200.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" && isGitHubHost(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", redactURL(rawURL), err)
	}

	if rlErr := checkRateLimit(resp); rlErr != nil {
		_ = resp.Body.Close()
		return nil, rlErr
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: redactURL(rawURL), StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// checkRateLimit inspects the X-RateLimit-* response headers and returns a
// RateLimitError when the remaining quota is zero.
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil //nolint:nilerr // Non-numeric header is non-fatal.
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // Best-effort header parsing.
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // Best-effort header parsing.

	return &RateLimitError{
		Limit:     limit,
		Remaining: 0,
		ResetAt:   time.Unix(resetUnix, 0),
	}
}

// isGitHubHost reports whether u targets a GitHub-operated host.
func isGitHubHost(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	switch host {
	case "github.com", "api.github.com", "codeload.github.com", "raw.githubusercontent.com":
		return true
	}
	return false
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
