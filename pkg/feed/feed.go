// Package feed implements a fetcher over RSS/Atom endpoints that mirror a profile's posts.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/codeGROOVE-dev/scran/pkg/htmlutil"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

const timeout = 10 * time.Second

var (
	mediaContentPattern = regexp.MustCompile(`<media:content[^>]*url="([^"]+)"`)
	imgSrcPattern       = regexp.MustCompile(`<img[^>]*src="([^"]+)"`)
)

// Fetcher tries each feed URL in order and returns the first one yielding media-host images.
type Fetcher struct {
	client *httpcache.Client
	name   string
	feeds  []string
	hosts  []string
}

// New creates a feed fetcher. feeds are URL templates (see providers.Expand);
// hosts are the substrings a URL must contain to count as the network's media.
func New(name string, client *httpcache.Client, feeds, hosts []string) *Fetcher {
	return &Fetcher{client: client, name: name, feeds: feeds, hosts: hosts}
}

// Name implements profile.Fetcher.
func (f *Fetcher) Name() string { return f.name }

// Fetch implements profile.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	logger := f.client.Logger()
	header := http.Header{"Accept": []string{"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"}}

	var lastErr error
	for _, tmpl := range f.feeds {
		feedURL := providers.Expand(tmpl, username, limit)

		body, err := f.client.Get(ctx, feedURL, timeout, header)
		if err != nil {
			logger.DebugContext(ctx, "feed fetch failed", "fetcher", f.name, "url", feedURL, "error", err)
			lastErr = err
			continue
		}

		urls := htmlutil.Compact(htmlutil.FilterHosts(Extract(body), f.hosts), limit)
		if len(urls) > 0 {
			logger.DebugContext(ctx, "feed yielded images", "fetcher", f.name, "url", feedURL, "count", len(urls))
			return urls, nil
		}
		logger.DebugContext(ctx, "feed had no media images", "fetcher", f.name, "url", feedURL)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no usable feed: %w", lastErr)
	}
	return nil, profile.ErrNoImages
}

// Extract returns image URLs from a feed document. The structural parse comes first;
// if it finds nothing (or the document is not a valid feed) a plain tag search runs over the raw text.
func Extract(data []byte) []string {
	if urls := structural(data); len(urls) > 0 {
		return urls
	}

	text := string(data)
	var urls []string
	for _, m := range mediaContentPattern.FindAllStringSubmatch(text, -1) {
		urls = append(urls, htmlutil.Unescape(m[1]))
	}
	if len(urls) > 0 {
		return urls
	}
	for _, m := range imgSrcPattern.FindAllStringSubmatch(text, -1) {
		urls = append(urls, htmlutil.Unescape(m[1]))
	}
	return urls
}

func structural(data []byte) []string {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var urls []string
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		urls = append(urls, mediaURLs(item.Extensions)...)
		for _, enc := range item.Enclosures {
			if enc != nil && (strings.HasPrefix(enc.Type, "image/") || len(htmlutil.ImageURLs(enc.URL)) > 0) {
				urls = append(urls, enc.URL)
			}
		}
		if item.Image != nil {
			urls = append(urls, item.Image.URL)
		}
		urls = append(urls, htmlutil.ImgSources(item.Description+item.Content)...)
	}
	return urls
}

// mediaURLs collects media:content and media:thumbnail urls, including those nested in media:group.
func mediaURLs(exts ext.Extensions) []string {
	media, ok := exts["media"]
	if !ok {
		return nil
	}

	var urls []string
	var walk func(map[string][]ext.Extension)
	walk = func(m map[string][]ext.Extension) {
		for _, key := range []string{"content", "thumbnail"} {
			for _, e := range m[key] {
				if medium := e.Attrs["medium"]; medium != "" && medium != "image" {
					continue
				}
				if u := e.Attrs["url"]; u != "" {
					urls = append(urls, u)
				}
			}
		}
		for _, g := range m["group"] {
			walk(g.Children)
		}
	}
	walk(media)
	return urls
}
