package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/htmlutil"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

const pageTimeout = 15 * time.Second

var sharedDataPattern = regexp.MustCompile(`window\._sharedData\s*=\s*(\{.+?\});\s*</script>`)

// PageFetcher scrapes the public profile page. The embedded window._sharedData JSON is preferred;
// when Instagram serves a page without it, media-host image URLs are pulled from the raw HTML.
type PageFetcher struct {
	client  *httpcache.Client
	pageURL string
	hosts   []string
}

// NewPageFetcher creates a PageFetcher.
func NewPageFetcher(client *httpcache.Client, ep providers.Instagram) *PageFetcher {
	return &PageFetcher{client: client, pageURL: ep.PageURL, hosts: ep.MediaHosts}
}

// Name implements profile.Fetcher.
func (*PageFetcher) Name() string { return "Instagram page" }

// Fetch implements profile.Fetcher.
func (f *PageFetcher) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	header.Set("Accept-Language", "en-US,en;q=0.5")

	body, err := f.client.Get(ctx, providers.Expand(f.pageURL, username, limit), pageTimeout, header)
	if err != nil {
		return nil, fmt.Errorf("fetch instagram page: %w", err)
	}
	html := string(body)

	urls, err := sharedDataImages(html, limit)
	if err != nil {
		f.client.Logger().DebugContext(ctx, "instagram shared data unusable", "user", username, "error", err)
	}
	if len(urls) > 0 {
		return urls, nil
	}

	candidates := append(htmlutil.ImgSources(html), htmlutil.ImageURLs(htmlutil.Unescape(html))...)
	urls = htmlutil.Compact(htmlutil.FilterHosts(candidates, f.hosts), limit)
	if len(urls) == 0 {
		return nil, profile.ErrNoImages
	}
	return urls, nil
}

type sharedData struct {
	EntryData struct {
		ProfilePage []struct {
			Graphql struct {
				User userInfo `json:"user"`
			} `json:"graphql"`
		} `json:"ProfilePage"`
	} `json:"entry_data"`
}

// sharedDataImages returns post images from the embedded JSON. A page without the marker yields nil, nil.
func sharedDataImages(html string, limit int) ([]string, error) {
	m := sharedDataPattern.FindStringSubmatch(html)
	if len(m) < 2 {
		return nil, nil
	}
	var data sharedData
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return nil, fmt.Errorf("parse shared data: %w", err)
	}
	if len(data.EntryData.ProfilePage) == 0 {
		return nil, nil
	}
	return data.EntryData.ProfilePage[0].Graphql.User.EdgeOwnerToTimelineMedia.images(limit), nil
}
