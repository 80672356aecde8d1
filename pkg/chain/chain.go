// Package chain tries a network's fetchers in order until one returns images.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/htmlutil"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

// DefaultPause is the delay between two fetcher attempts.
const DefaultPause = time.Second

// Attempt records one fetcher call, for logs and the debug command.
type Attempt struct {
	Err      error
	Fetcher  string
	Sample   string // first URL found, if any
	Count    int
	Duration time.Duration
}

// OK reports whether the attempt produced images.
func (a Attempt) OK() bool { return a.Count > 0 }

// Chain is an ordered list of fetchers. The first non-empty result wins; results are never merged.
type Chain struct {
	logger   *slog.Logger
	fetchers []profile.Fetcher
	pause    time.Duration
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) { c.logger = logger }
}

// WithPause sets the delay between attempts. Zero disables it.
func WithPause(d time.Duration) Option {
	return func(c *Chain) { c.pause = d }
}

// New creates a chain over fetchers, most authoritative first.
func New(fetchers []profile.Fetcher, opts ...Option) *Chain {
	c := &Chain{
		fetchers: fetchers,
		logger:   slog.Default(),
		pause:    DefaultPause,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetchers returns the names of the chain members in order.
func (c *Chain) Fetchers() []string {
	names := make([]string, len(c.fetchers))
	for i, f := range c.fetchers {
		names[i] = f.Name()
	}
	return names
}

// Fetch returns up to limit image URLs for username from the first fetcher that finds any.
// It returns profile.ErrNotConfigured for an empty username and profile.ErrNoImages when every fetcher came up empty.
func (c *Chain) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	urls, _, err := c.Trace(ctx, username, limit)
	return urls, err
}

// Trace is Fetch that also reports every attempt made.
func (c *Chain) Trace(ctx context.Context, username string, limit int) ([]string, []Attempt, error) {
	username = profile.Normalize(username)
	if username == "" {
		return nil, nil, profile.ErrNotConfigured
	}

	var attempts []Attempt
	for i, f := range c.fetchers {
		if i > 0 {
			if err := c.wait(ctx); err != nil {
				return nil, attempts, err
			}
		}

		urls, a := c.try(ctx, f, username, limit)
		attempts = append(attempts, a)
		if len(urls) > 0 {
			c.logger.InfoContext(ctx, "fetched images", "user", username, "fetcher", a.Fetcher, "count", len(urls))
			return urls, attempts, nil
		}
	}

	c.logger.WarnContext(ctx, "all fetchers failed", "user", username, "tried", len(attempts))
	return nil, attempts, profile.ErrNoImages
}

// Probe calls every fetcher regardless of earlier results.
func (c *Chain) Probe(ctx context.Context, username string, limit int) ([]Attempt, error) {
	username = profile.Normalize(username)
	if username == "" {
		return nil, profile.ErrNotConfigured
	}

	attempts := make([]Attempt, 0, len(c.fetchers))
	for i, f := range c.fetchers {
		if i > 0 {
			if err := c.wait(ctx); err != nil {
				return attempts, err
			}
		}
		_, a := c.try(ctx, f, username, limit)
		attempts = append(attempts, a)
	}
	return attempts, nil
}

func (c *Chain) try(ctx context.Context, f profile.Fetcher, username string, limit int) (urls []string, a Attempt) {
	a.Fetcher = f.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			urls = nil
			a.Err = fmt.Errorf("fetcher panicked: %v", r)
			a.Count = 0
			a.Duration = time.Since(start)
			c.logger.ErrorContext(ctx, "fetcher panicked", "user", username, "fetcher", a.Fetcher, "panic", r)
		}
	}()

	c.logger.DebugContext(ctx, "trying fetcher", "user", username, "fetcher", a.Fetcher)
	urls, err := f.Fetch(ctx, username, limit)
	urls = htmlutil.Compact(urls, limit)
	a.Duration = time.Since(start)
	a.Count = len(urls)

	switch {
	case err != nil:
		a.Err = err
		urls = nil
		a.Count = 0
		c.logger.DebugContext(ctx, "fetcher failed", "user", username, "fetcher", a.Fetcher, "error", err)
	case len(urls) == 0:
		a.Err = profile.ErrNoImages
		c.logger.DebugContext(ctx, "fetcher found nothing", "user", username, "fetcher", a.Fetcher)
	default:
		a.Sample = urls[0]
	}
	return urls, a
}

func (c *Chain) wait(ctx context.Context) error {
	if c.pause <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
