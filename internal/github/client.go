// Package github proxies the GitHub repository-listing API.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/devconnect/devconnect/internal/cache"
	"github.com/devconnect/devconnect/internal/observability"
)

var (
	// ErrUserNotFound means GitHub has no such user.
	ErrUserNotFound = errors.New("github user not found")
	// ErrUpstream covers every other upstream failure (network, 5xx, rate limit).
	ErrUpstream = errors.New("github request failed")
)

const (
	defaultBaseURL = "https://api.github.com"
	cacheTTL       = 5 * time.Minute
)

type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	cache        *cache.Client
	prom         *observability.Prom
}

type Option func(*Client)

// WithBaseURL overrides the GitHub API base URL. Tests point this at a
// local httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCache enables response caching; repo listings change rarely enough
// that a short TTL saves most upstream round trips.
func WithCache(cc *cache.Client) Option {
	return func(c *Client) { c.cache = cc }
}

func WithMetrics(p *observability.Prom) Option {
	return func(c *Client) { c.prom = p }
}

func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      defaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListRepos returns the raw JSON body for a user's five most recently
// created repositories. The body is passed through untouched so the
// response stays a faithful proxy of the upstream API.
func (c *Client) ListRepos(ctx context.Context, username string) ([]byte, error) {
	cacheKey := "github:repos:" + username

	if c.cache != nil {
		if body, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
			c.count("cache_hit")
			return body, nil
		}
	}

	q := url.Values{}
	q.Set("per_page", "5")
	q.Set("sort", "created:asc")
	if c.clientID != "" {
		q.Set("client_id", c.clientID)
		q.Set("client_secret", c.clientSecret)
	}

	endpoint := fmt.Sprintf("%s/users/%s/repos?%s", c.baseURL, url.PathEscape(username), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "devconnect")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.count("error")
		return nil, ErrUpstream
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.count("not_found")
		return nil, ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		c.count("error")
		return nil, ErrUpstream
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.count("error")
		return nil, ErrUpstream
	}

	c.count("ok")

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, body, cacheTTL)
	}

	return body, nil
}

func (c *Client) count(result string) {
	if c.prom != nil {
		c.prom.UpstreamRequests.WithLabelValues("github", result).Inc()
	}
}
