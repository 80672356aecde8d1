// Command scran runs a network's provider chain once and prints the image URLs it found.
//
// Usage:
//
//	scran -network instagram nasa
//	scran -network twitter -probe @nasa   # report every fetcher
//	scran https://x.com/nasa             # network taken from the URL
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
	"github.com/codeGROOVE-dev/scran/pkg/scran"
)

// attempt is the JSON form of one probe attempt.
type attempt struct {
	Fetcher  string `json:"fetcher"`
	Error    string `json:"error,omitempty"`
	Sample   string `json:"sample,omitempty"`
	Duration string `json:"duration"`
	Count    int    `json:"count"`
	OK       bool   `json:"ok"`
}

func main() {
	network := flag.String("network", "", "network to scrape: instagram or twitter (default: detected from a URL argument)")
	limit := flag.Int("limit", 0, "maximum number of images (default: the network's limit)")
	probe := flag.Bool("probe", false, "run every fetcher and report each one")
	debug := flag.Bool("debug", false, "enable debug logging")
	verbose := flag.Bool("v", false, "verbose logging (same as -debug)")
	browser := flag.Bool("browser", false, "read session cookies from browser stores")
	noCache := flag.Bool("no-cache", false, "disable HTTP caching")
	cacheTTL := flag.Duration("cache-ttl", 10*time.Minute, "cache time-to-live")
	providersFile := flag.String("providers", "", "TOML file overriding provider endpoints")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scran [options] <handle or profile URL>")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nNetworks:")
		for _, p := range profile.Platforms() {
			fmt.Fprintf(os.Stderr, "  - %s (credentials: %s)\n", p.Name(), strings.Join(auth.EnvVarsForNetwork(string(p.Name())), ", "))
		}
		os.Exit(1)
	}
	input := flag.Arg(0)

	logLevel := slog.LevelInfo
	if *debug || *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	p := platformFor(*network, input)
	if p == nil {
		fmt.Fprintf(os.Stderr, "Error: cannot tell the network of %q, use -network\n", input)
		os.Exit(1)
	}
	username := p.Handle(input)
	if username == "" {
		fmt.Fprintf(os.Stderr, "Error: %q is not a %s profile\n", input, p.Title())
		os.Exit(1)
	}

	endpoints, err := providers.Load(*providersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := []scran.Option{scran.WithLogger(logger), scran.WithEndpoints(endpoints)}
	if *browser {
		opts = append(opts, scran.WithBrowserCookies())
	}
	if !*noCache {
		httpCache, err := httpcache.New(*cacheTTL)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := httpCache.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
			logger.Debug("HTTP cache initialized", "ttl", cacheTTL.String())
			opts = append(opts, scran.WithHTTPCache(httpCache))
		}
	}

	ctx := context.Background()

	if *probe {
		attempts, err := scran.Probe(ctx, p.Name(), username, *limit, opts...)
		if err != nil {
			fail(p, err)
		}
		out := make([]attempt, len(attempts))
		for i, a := range attempts {
			out[i] = attempt{
				Fetcher:  a.Fetcher,
				Sample:   a.Sample,
				Duration: a.Duration.Round(time.Millisecond).String(),
				Count:    a.Count,
				OK:       a.OK(),
			}
			if a.Err != nil {
				out[i].Error = a.Err.Error()
			}
		}
		if err := outputJSON(out); err != nil {
			fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
			os.Exit(1) //nolint:gocritic // exitAfterDefer is acceptable in main
		}
		return
	}

	urls, err := scran.Fetch(ctx, p.Name(), username, *limit, opts...)
	if err != nil {
		fail(p, err)
	}
	if err := outputJSON(urls); err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(1)
	}
}

// hosts maps profile URL hosts to their network.
var hosts = map[string]profile.Network{
	"instagram.com": profile.Instagram,
	"twitter.com":   profile.Twitter,
	"x.com":         profile.Twitter,
}

// platformFor resolves the -network flag, or the network whose host input is a URL of.
func platformFor(name, input string) profile.Platform {
	if name != "" {
		return profile.Lookup(profile.Network(strings.ToLower(name)))
	}
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return nil
	}
	host := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), "mobile.")
	if n, ok := hosts[host]; ok {
		return profile.Lookup(n)
	}
	return nil
}

func fail(p profile.Platform, err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, scran.ErrNoImages) || errors.Is(err, scran.ErrAuthRequired) {
		if vars := auth.EnvVarsForNetwork(string(p.Name())); len(vars) > 0 {
			fmt.Fprintf(os.Stderr, "Hint: set %s or use -browser for authenticated access\n", strings.Join(vars, ", "))
		}
	}
	os.Exit(1)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
