package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

const apiTimeout = 10 * time.Second

// APIFetcher reads recent posts from the web_profile_info endpoint.
// Session cookies are sent when the credential source has them; anonymous access works for public profiles.
type APIFetcher struct {
	client *httpcache.Client
	creds  auth.Source
	apiURL string
	appID  string
}

// NewAPIFetcher creates an APIFetcher. creds may be nil.
func NewAPIFetcher(client *httpcache.Client, ep providers.Instagram, creds auth.Source) *APIFetcher {
	return &APIFetcher{client: client, creds: creds, apiURL: ep.APIURL, appID: ep.AppID}
}

// Name implements profile.Fetcher.
func (*APIFetcher) Name() string { return "Instagram API" }

// Fetch implements profile.Fetcher.
func (f *APIFetcher) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	header := http.Header{}
	header.Set("X-Ig-App-Id", f.appID)
	header.Set("Accept", "application/json")
	if f.creds != nil {
		creds, err := f.creds.Credentials(ctx, string(profile.Instagram))
		if err != nil {
			f.client.Logger().DebugContext(ctx, "instagram credentials unavailable", "error", err)
		}
		if cookie := auth.CookieHeader(creds); cookie != "" {
			header.Set("Cookie", cookie)
			if csrf := creds["csrftoken"]; csrf != "" {
				header.Set("X-Csrftoken", csrf)
			}
		}
	}

	body, err := f.client.Get(ctx, providers.Expand(f.apiURL, username, limit), apiTimeout, header)
	if err != nil {
		return nil, fmt.Errorf("fetch instagram API: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	user := resp.Data.User
	if user.Username == "" {
		return nil, errors.New("user not found")
	}

	urls := user.EdgeOwnerToTimelineMedia.images(limit)
	if len(urls) == 0 && user.IsPrivate {
		return nil, fmt.Errorf("%s is private: %w", user.Username, profile.ErrAuthRequired)
	}
	if len(urls) == 0 {
		return nil, profile.ErrNoImages
	}
	return urls, nil
}

// apiResponse is the subset of the web_profile_info payload needed for images.
type apiResponse struct {
	Data struct {
		User userInfo `json:"user"`
	} `json:"data"`
}

// userInfo is shared by the API payload and the page's embedded JSON.
type userInfo struct {
	Username                 string        `json:"username"`
	EdgeOwnerToTimelineMedia timelineMedia `json:"edge_owner_to_timeline_media"`
	IsPrivate                bool          `json:"is_private"`
}

type timelineMedia struct {
	Edges []struct {
		Node mediaNode `json:"node"`
	} `json:"edges"`
	Count int `json:"count"`
}

type mediaNode struct {
	DisplayURL string `json:"display_url"`
	IsVideo    bool   `json:"is_video"`
}

// images returns display URLs of non-video posts in timeline order, up to limit.
func (m timelineMedia) images(limit int) []string {
	var urls []string
	for _, e := range m.Edges {
		if len(urls) >= limit {
			break
		}
		if e.Node.IsVideo || e.Node.DisplayURL == "" {
			continue
		}
		urls = append(urls, e.Node.DisplayURL)
	}
	return urls
}
