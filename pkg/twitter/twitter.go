// Package twitter scrapes image URLs from Twitter/X profiles.
package twitter

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/feed"
	"github.com/codeGROOVE-dev/scran/pkg/mirror"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

const (
	// DefaultInterval is the time between scheduled sweeps.
	DefaultInterval = 15 * time.Minute
	// DefaultLimit is the number of images requested per scrape.
	DefaultLimit = 200
)

// platformInfo implements profile.Platform for Twitter.
type platformInfo struct{}

func (platformInfo) Name() profile.Network      { return profile.Twitter }
func (platformInfo) Title() string              { return "Twitter" }
func (platformInfo) Color() int                 { return 0x1DA1F2 }
func (platformInfo) Interval() time.Duration    { return DefaultInterval }
func (platformInfo) Limit() int                 { return DefaultLimit }
func (platformInfo) Handle(input string) string { return Handle(input) }

func (platformInfo) Fetchers(cfg *profile.FetcherConfig) []profile.Fetcher {
	return Fetchers(cfg)
}

func init() { profile.Register(platformInfo{}) }

// Fetchers builds the chain members named by the configured order. Unknown names are logged and skipped.
func Fetchers(cfg *profile.FetcherConfig) []profile.Fetcher {
	ep := cfg.Endpoints.Twitter
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var out []profile.Fetcher
	for _, name := range ep.Order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "api":
			out = append(out, NewAPIFetcher(cfg.Client, ep, cfg.Credentials))
		case "syndication":
			out = append(out, NewSyndicationFetcher(cfg.Client, ep))
		case "nitter":
			out = append(out, mirror.New("Nitter", cfg.Client, ep.Nitter,
				mirror.WithExtractor(NitterImages), mirror.WithHosts(ep.MediaHosts)))
		case "feeds":
			out = append(out, feed.New("Twitter RSS", cfg.Client, ep.Feeds, ep.MediaHosts))
		default:
			logger.Warn("unknown twitter fetcher in provider order", "name", name)
		}
	}
	return out
}

var usernamePattern = regexp.MustCompile(`(?i)(?:twitter|x)\.com/([a-zA-Z0-9_]+)`)

var systemPaths = map[string]bool{
	"home": true, "i": true, "intent": true, "search": true,
	"explore": true, "settings": true, "hashtag": true, "share": true,
	"messages": true, "notifications": true, "login": true,
}

// Handle returns the screen name for a handle ("@name", "name") or a twitter.com / x.com URL.
func Handle(input string) string {
	input = strings.TrimSpace(input)
	lower := strings.ToLower(input)
	if !strings.Contains(lower, "twitter.com/") && !strings.Contains(lower, "x.com/") {
		return profile.Normalize(input)
	}
	m := usernamePattern.FindStringSubmatch(input)
	if len(m) < 2 || systemPaths[strings.ToLower(m[1])] {
		return ""
	}
	return m[1]
}
