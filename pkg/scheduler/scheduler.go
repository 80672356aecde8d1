// Package scheduler runs a network's periodic scrape sweep over every guild.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/gallery"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

// State is the scheduler's activity.
type State int32

// Scheduler states.
const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// GuildSource lists the guilds the host is currently in.
type GuildSource interface {
	Guilds(ctx context.Context) ([]string, error)
}

// Scraper refreshes one guild's cache.
type Scraper interface {
	Scrape(ctx context.Context, guild string) (gallery.ScrapeResult, error)
}

// Summary reports one sweep.
type Summary struct {
	Processed int // guilds whose cache was replaced
	Failed    int // guilds whose scrape failed or found nothing
	Skipped   int // guilds without a configured profile
	Images    int
	Duration  time.Duration
}

// Scheduler sweeps all guilds immediately once the host is ready, then again every interval
// after the previous sweep ends.
type Scheduler struct {
	source   GuildSource
	scraper  Scraper
	ready    <-chan struct{}
	logger   *slog.Logger
	cancel   context.CancelFunc
	network  profile.Network
	wg       sync.WaitGroup
	interval time.Duration
	lastRun  atomic.Int64
	state    atomic.Int32
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithReady delays the first sweep until ready is closed.
func WithReady(ready <-chan struct{}) Option {
	return func(s *Scheduler) { s.ready = ready }
}

// New creates a Scheduler for network.
func New(network profile.Network, source GuildSource, scraper Scraper, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		network:  network,
		source:   source,
		scraper:  scraper,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports whether a sweep is in progress.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// LastRun returns when the last sweep finished, or the zero time.
func (s *Scheduler) LastRun() time.Time {
	ns := s.lastRun.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Run sweeps until ctx is cancelled. It returns ctx's error.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.ready != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ready:
		}
	}
	s.logger.InfoContext(ctx, "scrape loop started", "network", s.network, "interval", s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "scrape loop stopped", "network", s.network)
			return ctx.Err()
		case <-timer.C:
			s.Sweep(ctx)
			timer.Reset(s.interval)
		}
	}
}

// Start runs the loop in a goroutine until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx) //nolint:errcheck // cancellation is the only exit
	}()
}

// Stop cancels the loop and waits for it to exit. An in-flight sweep is abandoned at its next context check.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Sweep scrapes every guild once. Failures are logged and never stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) Summary {
	s.state.Store(int32(Running))
	defer s.state.Store(int32(Idle))

	start := time.Now()
	s.logger.InfoContext(ctx, "starting scrape cycle", "network", s.network)

	var sum Summary
	guilds, err := s.source.Guilds(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "listing guilds failed", "network", s.network, "error", err)
	}

	for _, guild := range guilds {
		if ctx.Err() != nil {
			break
		}
		res, err := s.scrapeGuild(ctx, guild)
		switch {
		case errors.Is(err, profile.ErrNotConfigured):
			sum.Skipped++
		case errors.Is(err, profile.ErrNoImages):
			sum.Failed++
			s.logger.WarnContext(ctx, "no images found", "network", s.network, "guild", guild, "user", res.Profile)
		case err != nil:
			sum.Failed++
			s.logger.ErrorContext(ctx, "scrape failed", "network", s.network, "guild", guild, "user", res.Profile, "error", err)
		default:
			sum.Processed++
			sum.Images += res.Count
		}
	}

	end := time.Now()
	s.lastRun.Store(end.UnixNano())
	sum.Duration = end.Sub(start)

	s.logger.InfoContext(ctx, "scrape cycle completed",
		"network", s.network,
		"processed", sum.Processed,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"images", sum.Images,
		"duration", sum.Duration,
	)
	return sum
}

func (s *Scheduler) scrapeGuild(ctx context.Context, guild string) (res gallery.ScrapeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scrape panicked: %v", r)
		}
	}()
	return s.scraper.Scrape(ctx, guild)
}
