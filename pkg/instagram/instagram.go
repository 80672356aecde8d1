// Package instagram scrapes image URLs from Instagram profiles.
//
// The chain tries, in configured order: the web_profile_info API, the profile page's embedded
// JSON, RSS bridges and third-party viewer sites.
package instagram

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
	DefaultInterval = 30 * time.Minute
	// DefaultLimit is the number of images requested per scrape.
	DefaultLimit = 20
)

// platformInfo implements profile.Platform for Instagram.
type platformInfo struct{}

func (platformInfo) Name() profile.Network      { return profile.Instagram }
func (platformInfo) Title() string              { return "Instagram" }
func (platformInfo) Color() int                 { return 0xE1306C }
func (platformInfo) Interval() time.Duration    { return DefaultInterval }
func (platformInfo) Limit() int                 { return DefaultLimit }
func (platformInfo) Handle(input string) string { return Handle(input) }

func (platformInfo) Fetchers(cfg *profile.FetcherConfig) []profile.Fetcher {
	return Fetchers(cfg)
}

func init() { profile.Register(platformInfo{}) }

// Fetchers builds the chain members named by the configured order. Unknown names are logged and skipped.
func Fetchers(cfg *profile.FetcherConfig) []profile.Fetcher {
	ep := cfg.Endpoints.Instagram
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var out []profile.Fetcher
	for _, name := range ep.Order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "api":
			out = append(out, NewAPIFetcher(cfg.Client, ep, cfg.Credentials))
		case "page":
			out = append(out, NewPageFetcher(cfg.Client, ep))
		case "feeds":
			out = append(out, feed.New("Instagram RSS", cfg.Client, ep.Feeds, ep.MediaHosts))
		case "viewers":
			out = append(out, mirror.New("Instagram viewers", cfg.Client, ep.Viewers, mirror.WithHosts(ep.MediaHosts)))
		default:
			logger.Warn("unknown instagram fetcher in provider order", "name", name)
		}
	}
	return out
}

var usernamePattern = regexp.MustCompile(`(?i)instagram\.com/([a-zA-Z0-9_.]+)`)

// Non-profile paths that look like usernames in a URL.
var systemPaths = map[string]bool{
	"p": true, "reel": true, "reels": true, "stories": true,
	"explore": true, "direct": true, "accounts": true,
	"about": true, "legal": true, "privacy": true,
	"terms": true, "api": true, "developer": true,
}

// Handle returns the account name for a handle ("@name", "name") or a profile URL.
// Post and system URLs yield "".
func Handle(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(strings.ToLower(input), "instagram.com/") {
		return profile.Normalize(input)
	}
	m := usernamePattern.FindStringSubmatch(input)
	if len(m) < 2 || systemPaths[strings.ToLower(m[1])] {
		return ""
	}
	return m[1]
}
