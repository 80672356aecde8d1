// Package scran assembles the provider chain of a network from its registered fetchers.
//
// Basic usage:
//
//	urls, err := scran.Fetch(ctx, profile.Instagram, "nasa", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The bot builds one long-lived chain per network instead:
//
//	c, _ := scran.NewChain(profile.Twitter, scran.WithHTTPCache(cache), scran.WithLogger(logger))
//	svc := gallery.New(profile.Lookup(profile.Twitter), st, c)
package scran

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
	"github.com/codeGROOVE-dev/scran/pkg/chain"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	_ "github.com/codeGROOVE-dev/scran/pkg/instagram" // registers the network
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
	_ "github.com/codeGROOVE-dev/scran/pkg/twitter" // registers the network
)

// Re-export common errors.
var (
	ErrAuthRequired  = profile.ErrAuthRequired
	ErrNoImages      = profile.ErrNoImages
	ErrNotConfigured = profile.ErrNotConfigured
)

// ErrUnknownNetwork is returned for a network no package registered.
var ErrUnknownNetwork = errors.New("unknown network")

// Option configures chain assembly.
type Option func(*config)

//nolint:govet // fieldalignment: intentional layout for readability
type config struct {
	cache          httpcache.Cacher
	client         *httpcache.Client
	creds          auth.Source
	endpoints      *providers.Endpoints
	logger         *slog.Logger
	pause          time.Duration
	browserCookies bool
}

// WithHTTPCache sets the HTTP cache for responses.
func WithHTTPCache(httpCache httpcache.Cacher) Option {
	return func(c *config) { c.cache = httpCache }
}

// WithClient replaces the HTTP client entirely. WithHTTPCache is ignored when set.
func WithClient(client *httpcache.Client) Option {
	return func(c *config) { c.client = client }
}

// WithCredentials sets the credential source. The default reads the environment.
func WithCredentials(src auth.Source) Option {
	return func(c *config) { c.creds = src }
}

// WithBrowserCookies adds local browser cookie stores after the credential source.
func WithBrowserCookies() Option {
	return func(c *config) { c.browserCookies = true }
}

// WithEndpoints overrides the compiled-in provider endpoints.
func WithEndpoints(ep providers.Endpoints) Option {
	return func(c *config) { c.endpoints = &ep }
}

// WithPause sets the delay between chain attempts.
func WithPause(d time.Duration) Option {
	return func(c *config) { c.pause = d }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Networks returns the registered network names, sorted.
func Networks() []profile.Network {
	platforms := profile.Platforms()
	out := make([]profile.Network, len(platforms))
	for i, p := range platforms {
		out[i] = p.Name()
	}
	return out
}

// NewChain builds the provider chain for network.
func NewChain(network profile.Network, opts ...Option) (*chain.Chain, error) {
	p := profile.Lookup(network)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}

	cfg := &config{logger: slog.Default(), pause: chain.DefaultPause}
	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.client
	if client == nil {
		clientOpts := []httpcache.Option{httpcache.WithLogger(cfg.logger)}
		if cfg.cache != nil {
			clientOpts = append(clientOpts, httpcache.WithCache(cfg.cache))
		}
		client = httpcache.NewClient(clientOpts...)
	}

	ep := providers.Default()
	if cfg.endpoints != nil {
		ep = *cfg.endpoints
	}

	var creds auth.Chain
	if cfg.creds != nil {
		creds = append(creds, cfg.creds)
	} else {
		creds = append(creds, auth.EnvSource{})
	}
	if cfg.browserCookies {
		creds = append(creds, auth.NewBrowserSource(cfg.logger))
	}

	fetchers := p.Fetchers(&profile.FetcherConfig{
		Client:      client,
		Endpoints:   ep,
		Credentials: creds,
		Logger:      cfg.logger,
	})
	return chain.New(fetchers, chain.WithLogger(cfg.logger.With("network", network)), chain.WithPause(cfg.pause)), nil
}

// Fetch runs the chain of network once. A limit of zero or less uses the network default.
func Fetch(ctx context.Context, network profile.Network, username string, limit int, opts ...Option) ([]string, error) {
	c, limit, err := prepare(network, limit, opts)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, username, limit)
}

// Probe runs every fetcher of network and reports each attempt.
func Probe(ctx context.Context, network profile.Network, username string, limit int, opts ...Option) ([]chain.Attempt, error) {
	c, limit, err := prepare(network, limit, opts)
	if err != nil {
		return nil, err
	}
	return c.Probe(ctx, username, limit)
}

func prepare(network profile.Network, limit int, opts []Option) (*chain.Chain, int, error) {
	c, err := NewChain(network, opts...)
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = profile.Lookup(network).Limit()
	}
	return c, limit, nil
}
