// Command scranbot is the Discord bot: it keeps per-guild Instagram and Twitter galleries
// fresh in the background and serves random images through slash commands.
//
// Usage:
//
//	DISCORD_TOKEN=... scranbot
//	scranbot --discord-token ... --guild 1234 --debug
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/bot"
	"github.com/codeGROOVE-dev/scran/pkg/config"
	"github.com/codeGROOVE-dev/scran/pkg/gallery"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/scheduler"
	"github.com/codeGROOVE-dev/scran/pkg/scran"
	"github.com/codeGROOVE-dev/scran/pkg/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if cfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if err := run(cfg, logger); err != nil {
		logger.Error("scranbot stopped", "error", err)
		os.Exit(1)
	}
}

// network pairs a gallery service with the sweep settings it is scheduled with.
type network struct {
	svc      *gallery.Service
	sched    *scheduler.Scheduler
	interval time.Duration
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoints, err := cfg.Endpoints()
	if err != nil {
		return err
	}

	opts := []scran.Option{
		scran.WithLogger(logger),
		scran.WithEndpoints(endpoints),
		scran.WithCredentials(cfg.Credentials(logger)),
		scran.WithPause(cfg.Pause),
	}
	if !cfg.NoCache {
		httpCache, err := openCache(cfg)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := httpCache.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
			logger.Debug("HTTP cache initialized", "ttl", cfg.CacheTTL.String())
			opts = append(opts, scran.WithHTTPCache(httpCache))
		}
	}

	st, err := store.OpenSQL(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	limits := map[profile.Network]int{profile.Instagram: cfg.InstagramLimit, profile.Twitter: cfg.TwitterLimit}
	intervals := map[profile.Network]time.Duration{profile.Instagram: cfg.InstagramInterval, profile.Twitter: cfg.TwitterInterval}

	var networks []*network
	var services []*gallery.Service
	for _, p := range profile.Platforms() {
		c, err := scran.NewChain(p.Name(), opts...)
		if err != nil {
			return err
		}
		n := &network{interval: intervals[p.Name()]}
		if n.interval <= 0 {
			n.interval = p.Interval()
		}
		n.svc = gallery.New(p, st, c,
			gallery.WithLogger(logger),
			gallery.WithLimit(limits[p.Name()]),
			gallery.WithLastRun(func() time.Time { return n.sched.LastRun() }),
		)
		logger.Info("provider chain ready", "network", p.Name(), "fetchers", c.Fetchers())
		networks = append(networks, n)
		services = append(services, n.svc)
	}

	b, err := bot.New(cfg.DiscordToken, services, bot.WithLogger(logger), bot.WithGuild(cfg.GuildID))
	if err != nil {
		return err
	}
	for _, n := range networks {
		p := n.svc.Platform()
		n.sched = scheduler.New(p.Name(), b, n.svc, n.interval,
			scheduler.WithLogger(logger),
			scheduler.WithReady(b.Ready()),
		)
	}

	if err := b.Open(); err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("failed to close discord session", "error", err)
		}
	}()

	for _, n := range networks {
		n.sched.Start(ctx)
	}
	logger.Info("scranbot running", "networks", len(networks))

	<-ctx.Done()
	logger.Info("shutting down")
	for _, n := range networks {
		n.sched.Stop()
	}
	return nil
}

func openCache(cfg *config.Config) (*httpcache.Cache, error) {
	if cfg.CacheDir != "" {
		return httpcache.NewWithPath(cfg.CacheTTL, cfg.CacheDir)
	}
	return httpcache.New(cfg.CacheTTL)
}
