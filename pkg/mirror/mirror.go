// Package mirror implements a fetcher over third-party sites that re-host a profile's media.
package mirror

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/htmlutil"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

const timeout = 15 * time.Second

// Extractor pulls image URLs out of one mirror page. page is the URL the body was fetched from,
// so relative links can be resolved against it.
type Extractor func(body []byte, page *url.URL) []string

// DefaultExtractor collects <img>/<source> sources and any image URLs in the raw text.
func DefaultExtractor(body []byte, _ *url.URL) []string {
	text := string(body)
	return append(htmlutil.ImgSources(text), htmlutil.ImageURLs(htmlutil.Unescape(text))...)
}

// Fetcher tries each mirror in order. Every mirror is fetched and parsed on its own;
// the first one producing media-host images wins.
type Fetcher struct {
	client  *httpcache.Client
	extract Extractor
	name    string
	mirrors []string
	hosts   []string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithExtractor replaces DefaultExtractor.
func WithExtractor(e Extractor) Option {
	return func(f *Fetcher) { f.extract = e }
}

// WithHosts keeps only URLs containing one of hosts.
func WithHosts(hosts []string) Option {
	return func(f *Fetcher) { f.hosts = hosts }
}

// New creates a mirror fetcher over the given URL templates.
func New(name string, client *httpcache.Client, mirrors []string, opts ...Option) *Fetcher {
	f := &Fetcher{client: client, name: name, mirrors: mirrors, extract: DefaultExtractor}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements profile.Fetcher.
func (f *Fetcher) Name() string { return f.name }

// Fetch implements profile.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	logger := f.client.Logger()

	var lastErr error
	for _, tmpl := range f.mirrors {
		pageURL := providers.Expand(tmpl, username, limit)
		page, err := url.Parse(pageURL)
		if err != nil {
			lastErr = fmt.Errorf("parse mirror url: %w", err)
			continue
		}

		body, err := f.client.Get(ctx, pageURL, timeout, nil)
		if err != nil {
			logger.DebugContext(ctx, "mirror fetch failed", "fetcher", f.name, "mirror", page.Host, "error", err)
			lastErr = err
			continue
		}

		urls := htmlutil.Compact(htmlutil.FilterHosts(f.extract(body, page), f.hosts), limit)
		if len(urls) > 0 {
			logger.DebugContext(ctx, "mirror yielded images", "fetcher", f.name, "mirror", page.Host, "count", len(urls))
			return urls, nil
		}
		logger.DebugContext(ctx, "mirror had no images", "fetcher", f.name, "mirror", page.Host)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no usable mirror: %w", lastErr)
	}
	return nil, profile.ErrNoImages
}
