package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

// API v2 bounds for max_results on the user timeline.
const (
	minResults = 5
	maxResults = 100
)

// APIFetcher uses the v2 API with an app bearer token. Without a token it reports
// profile.ErrAuthRequired so the chain moves on.
type APIFetcher struct {
	client *httpcache.Client
	creds  auth.Source
	base   string
}

// NewAPIFetcher creates an APIFetcher. creds may be nil.
func NewAPIFetcher(client *httpcache.Client, ep providers.Twitter, creds auth.Source) *APIFetcher {
	return &APIFetcher{client: client, creds: creds, base: strings.TrimSuffix(ep.APIBase, "/")}
}

// Name implements profile.Fetcher.
func (*APIFetcher) Name() string { return "Twitter API" }

// Fetch implements profile.Fetcher.
func (f *APIFetcher) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	token := f.token(ctx)
	if token == "" {
		return nil, profile.ErrAuthRequired
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	var user userResponse
	if err := f.get(ctx, f.base+"/users/by/username/"+url.PathEscape(username), header, &user); err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.Data.ID == "" {
		return nil, fmt.Errorf("lookup user: %w", user.err())
	}

	q := url.Values{}
	q.Set("max_results", strconv.Itoa(min(max(limit, minResults), maxResults)))
	q.Set("exclude", "retweets,replies")
	q.Set("expansions", "attachments.media_keys")
	q.Set("media.fields", "type,url")

	var tl timelineResponse
	if err := f.get(ctx, f.base+"/users/"+user.Data.ID+"/tweets?"+q.Encode(), header, &tl); err != nil {
		return nil, fmt.Errorf("fetch tweets: %w", err)
	}

	urls := tl.photos(limit)
	if len(urls) == 0 {
		return nil, profile.ErrNoImages
	}
	return urls, nil
}

func (f *APIFetcher) token(ctx context.Context) string {
	if f.creds == nil {
		return ""
	}
	creds, err := f.creds.Credentials(ctx, string(profile.Twitter))
	if err != nil {
		f.client.Logger().DebugContext(ctx, "twitter credentials unavailable", "error", err)
		return ""
	}
	return creds[auth.BearerTokenKey]
}

func (f *APIFetcher) get(ctx context.Context, rawURL string, header http.Header, v any) error {
	body, err := f.client.Get(ctx, rawURL, timeout, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type userResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

func (r userResponse) err() error {
	if len(r.Errors) > 0 && r.Errors[0].Detail != "" {
		return errors.New(r.Errors[0].Detail)
	}
	return errors.New("user not found")
}

type timelineResponse struct {
	Data []struct {
		Attachments struct {
			MediaKeys []string `json:"media_keys"`
		} `json:"attachments"`
	} `json:"data"`
	Includes struct {
		Media []struct {
			MediaKey string `json:"media_key"`
			Type     string `json:"type"`
			URL      string `json:"url"`
		} `json:"media"`
	} `json:"includes"`
}

// photos resolves each tweet's media keys in timeline order and keeps photos.
func (r timelineResponse) photos(limit int) []string {
	byKey := make(map[string]string, len(r.Includes.Media))
	for _, m := range r.Includes.Media {
		if m.Type == "photo" && m.URL != "" {
			byKey[m.MediaKey] = m.URL
		}
	}

	var urls []string
	for _, tweet := range r.Data {
		for _, key := range tweet.Attachments.MediaKeys {
			u, ok := byKey[key]
			if !ok {
				continue
			}
			urls = append(urls, u)
			if len(urls) >= limit {
				return urls
			}
		}
	}
	return urls
}
