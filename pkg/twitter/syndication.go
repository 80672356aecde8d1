package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

const timeout = 10 * time.Second

// SyndicationFetcher reads the public timeline served to embedded tweet widgets.
type SyndicationFetcher struct {
	client *httpcache.Client
	url    string
}

// NewSyndicationFetcher creates a SyndicationFetcher.
func NewSyndicationFetcher(client *httpcache.Client, ep providers.Twitter) *SyndicationFetcher {
	return &SyndicationFetcher{client: client, url: ep.SyndicationURL}
}

// Name implements profile.Fetcher.
func (*SyndicationFetcher) Name() string { return "Twitter syndication" }

// Fetch implements profile.Fetcher.
func (f *SyndicationFetcher) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	header := http.Header{"Accept": []string{"application/json"}}
	body, err := f.client.Get(ctx, providers.Expand(f.url, username, limit), timeout, header)
	if err != nil {
		return nil, fmt.Errorf("fetch syndication timeline: %w", err)
	}

	var resp syndicationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse syndication timeline: %w", err)
	}

	var urls []string
	for _, in := range resp.Instructions {
		for _, entry := range in.AddEntries.Entries {
			for _, m := range entry.Content.Item.Content.Tweet.MediaDetails {
				if m.Type != "photo" || m.MediaURLHTTPS == "" {
					continue
				}
				urls = append(urls, m.MediaURLHTTPS)
				if len(urls) >= limit {
					return urls, nil
				}
			}
		}
	}
	if len(urls) == 0 {
		return nil, profile.ErrNoImages
	}
	return urls, nil
}

type syndicationResponse struct {
	Instructions []struct {
		AddEntries struct {
			Entries []struct {
				Content struct {
					Item struct {
						Content struct {
							Tweet struct {
								MediaDetails []mediaDetail `json:"mediaDetails"`
							} `json:"tweet"`
						} `json:"content"`
					} `json:"item"`
				} `json:"content"`
			} `json:"entries"`
		} `json:"addEntries"`
	} `json:"instructions"`
}

type mediaDetail struct {
	Type          string `json:"type"`
	MediaURLHTTPS string `json:"media_url_https"`
}
