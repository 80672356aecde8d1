package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

type mockTransport struct {
	mockURL string
}

func (t *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.mockURL, "http://")
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *httpcache.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return httpcache.NewClient(
		httpcache.WithHTTPClient(&http.Client{Transport: &mockTransport{mockURL: server.URL}}),
		httpcache.WithMinDelay(0),
		httpcache.WithAttempts(1),
	)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://twitter.com/johndoe", "johndoe"},
		{"https://x.com/johndoe", "johndoe"},
		{"https://twitter.com/johndoe/status/123", "johndoe"},
		{"x.com/johndoe", "johndoe"},
		{"https://x.com/i/flow/login", ""},
		{"https://twitter.com/home", ""},
		{"johndoe", "johndoe"},
		{"@johndoe", "johndoe"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Handle(tt.input); got != tt.want {
				t.Errorf("Handle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

const syndicationBody = `{"instructions":[{"addEntries":{"entries":[
{"content":{"item":{"content":{"tweet":{"mediaDetails":[
  {"type":"photo","media_url_https":"https://pbs.twimg.com/media/A.jpg"},
  {"type":"video","media_url_https":"https://pbs.twimg.com/ext_tw_video_thumb/V.jpg"}]}}}}},
{"content":{"item":{"content":{"tweet":{}}}}},
{"content":{"item":{"content":{"tweet":{"mediaDetails":[
  {"type":"photo","media_url_https":"https://pbs.twimg.com/media/B.jpg"},
  {"type":"photo","media_url_https":"https://pbs.twimg.com/media/C.jpg"}]}}}}}
]}},{"clearCache":{}}]}`

func TestSyndicationFetcher(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("screen_name"); got != "jack" {
			t.Errorf("screen_name = %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "200" {
			t.Errorf("count = %q", got)
		}
		_, _ = w.Write([]byte(syndicationBody)) //nolint:errcheck // test helper
	})

	f := NewSyndicationFetcher(client, providers.Default().Twitter)
	got, err := f.Fetch(context.Background(), "jack", 200)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := []string{"https://pbs.twimg.com/media/A.jpg", "https://pbs.twimg.com/media/B.jpg", "https://pbs.twimg.com/media/C.jpg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestSyndicationFetcherLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(syndicationBody)) //nolint:errcheck // test helper
	})

	got, err := NewSyndicationFetcher(client, providers.Default().Twitter).Fetch(context.Background(), "jack", 2)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if diff := cmp.Diff([]string{"https://pbs.twimg.com/media/A.jpg", "https://pbs.twimg.com/media/B.jpg"}, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestSyndicationFetcherFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, ""},
		{"html instead of json", http.StatusOK, "<html></html>"},
		{"no photos", http.StatusOK, `{"instructions":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body)) //nolint:errcheck // test helper
			})
			got, err := NewSyndicationFetcher(client, providers.Default().Twitter).Fetch(context.Background(), "jack", 10)
			if err == nil || got != nil {
				t.Errorf("Fetch() = %v, %v; want nil and an error", got, err)
			}
		})
	}
}

func TestAPIFetcherWithoutToken(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected without a token")
	})

	for _, creds := range []auth.Source{nil, auth.NewStaticSource(nil)} {
		_, err := NewAPIFetcher(client, providers.Default().Twitter, creds).Fetch(context.Background(), "jack", 10)
		if !errors.Is(err, profile.ErrAuthRequired) {
			t.Errorf("Fetch() error = %v, want ErrAuthRequired", err)
		}
	}
}

func TestAPIFetcher(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/2/users/by/username/jack":
			_, _ = w.Write([]byte(`{"data":{"id":"12","username":"jack"}}`)) //nolint:errcheck // test helper
		case "/2/users/12/tweets":
			q := r.URL.Query()
			if q.Get("expansions") != "attachments.media_keys" || q.Get("media.fields") != "type,url" {
				t.Errorf("query = %v", q)
			}
			if q.Get("max_results") != "5" {
				t.Errorf("max_results = %q, want clamped to 5", q.Get("max_results"))
			}
			_, _ = w.Write([]byte(`{
"data":[
 {"id":"1","attachments":{"media_keys":["3_a","7_v"]}},
 {"id":"2"},
 {"id":"3","attachments":{"media_keys":["3_b","3_missing"]}}
],
"includes":{"media":[
 {"media_key":"3_b","type":"photo","url":"https://pbs.twimg.com/media/b.jpg"},
 {"media_key":"7_v","type":"video"},
 {"media_key":"3_a","type":"photo","url":"https://pbs.twimg.com/media/a.jpg"}
]}}`)) //nolint:errcheck // test helper
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	creds := auth.NewStaticSource(map[string]map[string]string{"twitter": {auth.BearerTokenKey: "tok"}})
	got, err := NewAPIFetcher(client, providers.Default().Twitter, creds).Fetch(context.Background(), "jack", 3)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := []string{"https://pbs.twimg.com/media/a.jpg", "https://pbs.twimg.com/media/b.jpg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIFetcherUnknownUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error","detail":"Could not find user with username: [ghost]."}]}`)) //nolint:errcheck // test helper
	})

	creds := auth.NewStaticSource(map[string]map[string]string{"twitter": {auth.BearerTokenKey: "tok"}})
	_, err := NewAPIFetcher(client, providers.Default().Twitter, creds).Fetch(context.Background(), "ghost", 10)
	if err == nil || !strings.Contains(err.Error(), "Could not find user") {
		t.Errorf("Fetch() error = %v", err)
	}
}

func TestNitterImages(t *testing.T) {
	page := []byte(`<html><body><div class="timeline">
<div class="attachment image"><a class="still-image" href="/pic/orig/media%2FAAA.jpg"><img src="/pic/media%2FAAA.jpg%3Fname%3Dsmall"></a></div>
<div class="attachment image"><a class="still-image" href="/pic/media%2FBBB.png%3Fname%3Dorig"></a></div>
<div class="attachment image"><a class="still-image" href="/pic/profile_images%2Fx.jpg"></a></div>
</div></body></html>`)

	want := []string{"https://pbs.twimg.com/media/AAA.jpg", "https://pbs.twimg.com/media/BBB.png?name=orig"}
	if diff := cmp.Diff(want, NitterImages(page, nil)); diff != "" {
		t.Errorf("NitterImages() mismatch (-want +got):\n%s", diff)
	}
}

func TestNitterImagesFromThumbnails(t *testing.T) {
	page := []byte(`<div class="gallery-row"><img src="/pic/media%2FCCC.jpg%3Fname%3Dsmall"><img src="https://pbs.twimg.com/media/DDD.jpg"></div>`)

	want := []string{"https://pbs.twimg.com/media/CCC.jpg?name=small", "https://pbs.twimg.com/media/DDD.jpg"}
	if diff := cmp.Diff(want, NitterImages(page, nil)); diff != "" {
		t.Errorf("NitterImages() mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchers(t *testing.T) {
	cfg := &profile.FetcherConfig{Client: httpcache.NewClient(), Endpoints: providers.Default()}
	var names []string
	for _, f := range Fetchers(cfg) {
		names = append(names, f.Name())
	}
	want := []string{"Twitter API", "Twitter syndication", "Nitter", "Twitter RSS"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Fetchers() mismatch (-want +got):\n%s", diff)
	}

	p := profile.Lookup(profile.Twitter)
	if p == nil || p.Interval() != DefaultInterval || p.Limit() != 200 {
		t.Errorf("twitter platform not registered with defaults: %v", p)
	}
}
