// Package httpcache provides the shared HTTP client used by every fetcher:
// per-request timeouts, a single transient retry, per-domain pacing and optional response caching.
package httpcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/persist/localfs"
)

// UserAgent is the standard browser User-Agent string for all fetchers.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

// DefaultTimeout bounds a single request when the caller does not pass one.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read; profile pages are large but not this large.
const maxBody = 8 << 20

// Cacher allows external cache implementations.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	TTL() time.Duration
}

// Cache wraps sfcache for HTTP response caching.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl time.Duration
}

// New creates a Cache persisted under the user cache directory (~/.cache/scran).
func New(ttl time.Duration) (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return NewWithPath(ttl, filepath.Join(cacheDir, "scran"))
}

// NewWithPath creates a Cache persisted at the given directory.
func NewWithPath(ttl time.Duration, cachePath string) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	persist, err := localfs.New[string, []byte]("scran", cachePath)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](persist, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache{TieredCache: tc, ttl: ttl}, nil
}

// TTL returns the default TTL for cache entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// URLToKey converts a URL to a cache key using SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// HTTPError represents a non-200 HTTP response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Client performs GET requests on behalf of fetchers.
type Client struct {
	http     *http.Client
	cache    Cacher
	limiter  *domainRateLimiter
	logger   *slog.Logger
	attempts uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (tests point it at httptest servers).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache enables response caching.
func WithCache(cache Cacher) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMinDelay sets the minimum spacing between two requests to the same host.
func WithMinDelay(d time.Duration) Option {
	return func(c *Client) { c.limiter = newDomainRateLimiter(d) }
}

// WithAttempts sets how many times a transient failure is attempted in total.
func WithAttempts(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// NewClient creates a Client. Without options it has no cache, paces each host at 500ms
// and retries a transient failure once.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{},
		limiter:  newDomainRateLimiter(500 * time.Millisecond),
		logger:   slog.Default(),
		attempts: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Get fetches rawURL with the given headers. A zero timeout means DefaultTimeout.
// User-Agent defaults to UserAgent when the caller does not set one.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration, header http.Header) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}

	return c.fetch(ctx, req, timeout)
}

func (c *Client) fetch(ctx context.Context, req *http.Request, timeout time.Duration) ([]byte, error) {
	// Authenticated responses are cached separately from anonymous ones.
	cacheKey := req.URL.String()
	if req.Header.Get("Authorization") != "" || req.Header.Get("Cookie") != "" {
		cacheKey += "|auth"
	}

	if c.cache == nil {
		return c.doFetch(ctx, req, timeout)
	}

	var wasFetched bool
	data, err := c.cache.GetSet(ctx, URLToKey(cacheKey), func(ctx context.Context) ([]byte, error) {
		wasFetched = true
		c.logger.Debug("cache miss", "url", req.URL.String())
		body, fetchErr := c.doFetch(ctx, req, timeout)
		if fetchErr != nil {
			// Cache HTTP errors too, so a broken provider is not hammered every sweep.
			var httpErr *HTTPError
			if errors.As(fetchErr, &httpErr) {
				return fmt.Appendf(nil, "ERROR:%d", httpErr.StatusCode), nil
			}
			return nil, fetchErr
		}
		return body, nil
	}, c.cache.TTL())
	if err != nil {
		return nil, err
	}

	if !wasFetched {
		c.logger.Debug("cache hit", "url", req.URL.String())
	}

	if errCode, found := strings.CutPrefix(string(data), "ERROR:"); found {
		code, _ := strconv.Atoi(errCode) //nolint:errcheck // 0 is acceptable default
		return nil, &HTTPError{StatusCode: code, URL: req.URL.String()}
	}
	return data, nil
}

func (c *Client) doFetch(ctx context.Context, req *http.Request, timeout time.Duration) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			if err := c.limiter.Wait(ctx, req.URL.Host, c.logger); err != nil {
				return nil, err
			}

			reqCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			resp, err := c.http.Do(req.Clone(reqCtx))
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
			}

			return io.ReadAll(io.LimitReader(resp.Body, maxBody))
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(300*time.Millisecond),
		retry.MaxJitter(100*time.Millisecond),
		retry.RetryIf(isRetryableError),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying HTTP request", "attempt", n+1, "url", req.URL.String(), "error", err)
		}),
	)
}

// isRetryableError returns true for transient errors that should be retried.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false // 4xx errors (except 429) are permanent
		}
	}
	return true
}
