// Package providers holds the endpoint lists used by every fetcher.
//
// Scraping targets change without notice, so the URLs, mirror hosts and provider order
// are configuration rather than code. Defaults are compiled in; a TOML file can override
// any subset of them.
package providers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Endpoints is the full provider configuration for every network.
type Endpoints struct {
	Instagram Instagram `toml:"instagram"`
	Twitter   Twitter   `toml:"twitter"`
}

// Instagram configures the Instagram provider chain.
// URL templates may contain {username} and {limit}.
type Instagram struct {
	// Order names the chain members, most authoritative first: api, page, feeds, viewers.
	Order      []string `toml:"order"`
	APIURL     string   `toml:"api_url"`
	AppID      string   `toml:"app_id"`
	PageURL    string   `toml:"page_url"`
	Feeds      []string `toml:"feeds"`
	Viewers    []string `toml:"viewers"`
	MediaHosts []string `toml:"media_hosts"`
}

// Twitter configures the Twitter/X provider chain.
type Twitter struct {
	// Order names the chain members: api, syndication, nitter, feeds.
	Order          []string `toml:"order"`
	APIBase        string   `toml:"api_base"`
	SyndicationURL string   `toml:"syndication_url"`
	Nitter         []string `toml:"nitter"`
	Feeds          []string `toml:"feeds"`
	MediaHosts     []string `toml:"media_hosts"`
}

// Default returns the compiled-in endpoints.
func Default() Endpoints {
	return Endpoints{
		Instagram: Instagram{
			Order:   []string{"api", "page", "feeds", "viewers"},
			APIURL:  "https://i.instagram.com/api/v1/users/web_profile_info/?username={username}",
			AppID:   "936619743392459",
			PageURL: "https://www.instagram.com/{username}/",
			Feeds: []string{
				"https://rsshub.app/instagram/user/{username}",
				"https://insta.rss.today/{username}",
				"https://www.instagramfeed.com/{username}/rss",
			},
			Viewers: []string{
				"https://imginn.com/{username}/",
				"https://picuki.com/profile/{username}",
			},
			MediaHosts: []string{"instagram", "cdninstagram.com", "scontent", "fbcdn.net"},
		},
		Twitter: Twitter{
			Order:          []string{"api", "syndication", "nitter", "feeds"},
			APIBase:        "https://api.twitter.com/2",
			SyndicationURL: "https://cdn.syndication.twimg.com/timeline/profile?screen_name={username}&count={limit}",
			Nitter: []string{
				"https://nitter.net/{username}/media",
				"https://nitter.poast.org/{username}/media",
				"https://nitter.privacydev.net/{username}/media",
			},
			Feeds: []string{
				"https://rsshub.app/twitter/media/{username}",
				"https://nitter.net/{username}/rss",
			},
			MediaHosts: []string{"pbs.twimg.com", "twimg.com"},
		},
	}
}

// Load reads a TOML file on top of the defaults. Keys absent from the file keep their default.
func Load(path string) (Endpoints, error) {
	e := Default()
	if path == "" {
		return e, nil
	}
	if _, err := toml.DecodeFile(path, &e); err != nil {
		return Endpoints{}, fmt.Errorf("decode providers file %s: %w", path, err)
	}
	return e, nil
}

// Expand fills a URL template with the path-escaped username and the limit.
func Expand(template, username string, limit int) string {
	return strings.NewReplacer(
		"{username}", url.PathEscape(username),
		"{limit}", strconv.Itoa(limit),
	).Replace(template)
}
