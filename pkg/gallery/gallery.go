// Package gallery implements the per-network operations behind the chat commands:
// configuring a guild's profile, scraping it, and picking a random cached image.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/chain"
	"github.com/codeGROOVE-dev/scran/pkg/imagecache"
	"github.com/codeGROOVE-dev/scran/pkg/picker"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/store"
)

// DebugLimit is the per-fetcher image count requested by Debug.
const DebugLimit = 5

// ErrInvalidHandle is returned by SetProfile when the input names no account.
var ErrInvalidHandle = errors.New("invalid profile name")

// Chain is the subset of *chain.Chain the service uses.
type Chain interface {
	Fetch(ctx context.Context, username string, limit int) ([]string, error)
	Probe(ctx context.Context, username string, limit int) ([]chain.Attempt, error)
}

// Service runs gallery operations for one network.
type Service struct {
	platform profile.Platform
	store    store.Store
	chain    Chain
	cache    *imagecache.Cache
	logger   *slog.Logger
	lastRun  func() time.Time
	locks    map[string]*sync.Mutex
	limit    int
	mu       sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLimit overrides the platform's default image count per scrape.
func WithLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLastRun reports the scheduler's last completed sweep in Status.
func WithLastRun(fn func() time.Time) Option {
	return func(s *Service) { s.lastRun = fn }
}

// New creates a Service.
func New(p profile.Platform, st store.Store, c Chain, opts ...Option) *Service {
	s := &Service{
		platform: p,
		store:    st,
		chain:    c,
		cache:    imagecache.New(st, p.Name()),
		logger:   slog.Default(),
		locks:    make(map[string]*sync.Mutex),
		limit:    p.Limit(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Platform returns the network served.
func (s *Service) Platform() profile.Platform { return s.platform }

// Guilds lists guilds with a configured profile.
func (s *Service) Guilds(ctx context.Context) ([]string, error) {
	return s.store.Guilds(ctx, s.platform.Name())
}

// lock serializes scrape-and-store for one guild.
func (s *Service) lock(guild string) func() {
	s.mu.Lock()
	m, ok := s.locks[guild]
	if !ok {
		m = &sync.Mutex{}
		s.locks[guild] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// ScrapeResult reports one scrape.
type ScrapeResult struct {
	Profile  string
	Sample   string // first stored URL
	Previous int    // cached count before the scrape
	Count    int    // cached count after the scrape
}

// SetProfile stores the guild's profile and scrapes it immediately.
// The profile stays saved when the scrape fails; the scrape's error is returned with the result.
func (s *Service) SetProfile(ctx context.Context, guild, input string) (ScrapeResult, error) {
	name := s.platform.Handle(input)
	if name == "" {
		return ScrapeResult{}, fmt.Errorf("%w: %q", ErrInvalidHandle, input)
	}

	unlock := s.lock(guild)
	defer unlock()

	if err := s.store.SetProfile(ctx, guild, s.platform.Name(), name); err != nil {
		return ScrapeResult{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile set", "network", s.platform.Name(), "guild", guild, "user", name)

	return s.scrape(ctx, guild, name)
}

// Scrape fetches the guild's profile through the chain and replaces the cache on success.
// A failed scrape leaves the cache untouched.
func (s *Service) Scrape(ctx context.Context, guild string) (ScrapeResult, error) {
	unlock := s.lock(guild)
	defer unlock()

	name, err := s.store.Profile(ctx, guild, s.platform.Name())
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("load profile: %w", err)
	}
	if name == "" {
		return ScrapeResult{}, profile.ErrNotConfigured
	}
	return s.scrape(ctx, guild, name)
}

// scrape must be called with the guild lock held.
func (s *Service) scrape(ctx context.Context, guild, name string) (ScrapeResult, error) {
	res := ScrapeResult{Profile: name}

	old, err := s.cache.Get(ctx, guild)
	if err != nil {
		return res, err
	}
	res.Previous = len(old)
	res.Count = len(old)

	urls, err := s.chain.Fetch(ctx, name, s.limit)
	if err != nil {
		return res, err
	}
	if len(urls) == 0 {
		return res, profile.ErrNoImages
	}
	if err := s.cache.Set(ctx, guild, urls); err != nil {
		return res, err
	}
	res.Count = len(urls)
	res.Sample = urls[0]

	s.logger.InfoContext(ctx, "cached images", "network", s.platform.Name(), "guild", guild, "user", name,
		"previous", res.Previous, "count", res.Count)
	return res, nil
}

// Picked is a randomly chosen image.
type Picked struct {
	URL     string
	Profile string
	Fetched int // images fetched because the cache was empty; 0 on a cache hit
}

// Pick returns a random cached image. An empty cache triggers one synchronous scrape first.
// An unconfigured guild gets profile.ErrNotConfigured without any network call.
func (s *Service) Pick(ctx context.Context, guild string) (Picked, error) {
	network := s.platform.Name()
	name, err := s.store.Profile(ctx, guild, network)
	if err != nil {
		return Picked{}, fmt.Errorf("load profile: %w", err)
	}

	urls, err := s.cache.Get(ctx, guild)
	if err != nil {
		return Picked{}, err
	}
	if u, ok := picker.Pick(urls); ok {
		return Picked{URL: u, Profile: name}, nil
	}
	if name == "" {
		return Picked{}, profile.ErrNotConfigured
	}

	unlock := s.lock(guild)
	defer unlock()

	// Another caller may have filled the cache while we waited.
	if urls, err = s.cache.Get(ctx, guild); err != nil {
		return Picked{}, err
	}
	if u, ok := picker.Pick(urls); ok {
		return Picked{URL: u, Profile: name}, nil
	}

	s.logger.WarnContext(ctx, "cache empty, fetching", "network", network, "guild", guild, "user", name)
	res, err := s.scrape(ctx, guild, name)
	if err != nil {
		return Picked{Profile: name}, err
	}
	// scrape succeeded, so the cache is non-empty.
	urls, err = s.cache.Get(ctx, guild)
	if err != nil {
		return Picked{}, err
	}
	u, _ := picker.Pick(urls)
	return Picked{URL: u, Profile: name, Fetched: res.Count}, nil
}

// Status summarizes a guild's configuration and cache.
type Status struct {
	LastRun time.Time // zero when the scheduler has not completed a sweep
	Profile string
	Sample  string
	Cached  int
}

// Status reports the guild's profile, cache size and the last scheduled sweep.
func (s *Service) Status(ctx context.Context, guild string) (Status, error) {
	name, err := s.store.Profile(ctx, guild, s.platform.Name())
	if err != nil {
		return Status{}, fmt.Errorf("load profile: %w", err)
	}
	if name == "" {
		return Status{}, profile.ErrNotConfigured
	}
	urls, err := s.cache.Get(ctx, guild)
	if err != nil {
		return Status{}, err
	}

	st := Status{Profile: name, Cached: len(urls)}
	if len(urls) > 0 {
		st.Sample = urls[0]
	}
	if s.lastRun != nil {
		st.LastRun = s.lastRun()
	}
	return st, nil
}

// Debug runs every fetcher against the guild's profile with a small limit. The cache is not touched.
func (s *Service) Debug(ctx context.Context, guild string) (string, []chain.Attempt, error) {
	name, err := s.store.Profile(ctx, guild, s.platform.Name())
	if err != nil {
		return "", nil, fmt.Errorf("load profile: %w", err)
	}
	if name == "" {
		return "", nil, profile.ErrNotConfigured
	}
	attempts, err := s.chain.Probe(ctx, name, DebugLimit)
	return name, attempts, err
}
