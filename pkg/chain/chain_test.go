package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

// recorder returns fetchers that log their calls into a shared slice.
type recorder struct {
	calls []string
}

func (r *recorder) fetcher(name string, urls []string, err error) profile.Fetcher {
	return profile.FetcherFunc{
		Label: name,
		Func: func(_ context.Context, _ string, _ int) ([]string, error) {
			r.calls = append(r.calls, name)
			return urls, err
		},
	}
}

func TestFetch(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		fetchers  func(r *recorder) []profile.Fetcher
		limit     int
		want      []string
		wantErr   error
		wantCalls []string
	}{
		{
			name: "first non-empty short-circuits",
			fetchers: func(r *recorder) []profile.Fetcher {
				return []profile.Fetcher{
					r.fetcher("a", []string{"u1"}, nil),
					r.fetcher("b", []string{"u2"}, nil),
				}
			},
			limit:     10,
			want:      []string{"u1"},
			wantCalls: []string{"a"},
		},
		{
			name: "empty then success",
			fetchers: func(r *recorder) []profile.Fetcher {
				return []profile.Fetcher{
					r.fetcher("a", nil, nil),
					r.fetcher("b", []string{"u1", "u2"}, nil),
				}
			},
			limit:     10,
			want:      []string{"u1", "u2"},
			wantCalls: []string{"a", "b"},
		},
		{
			name: "error treated as empty",
			fetchers: func(r *recorder) []profile.Fetcher {
				return []profile.Fetcher{
					r.fetcher("a", []string{"ignored"}, boom),
					r.fetcher("b", []string{"u1"}, nil),
				}
			},
			limit:     10,
			want:      []string{"u1"},
			wantCalls: []string{"a", "b"},
		},
		{
			name: "all empty",
			fetchers: func(r *recorder) []profile.Fetcher {
				return []profile.Fetcher{
					r.fetcher("a", nil, boom),
					r.fetcher("b", []string{}, nil),
					r.fetcher("c", []string{"", "  "}, nil),
				}
			},
			limit:     10,
			wantErr:   profile.ErrNoImages,
			wantCalls: []string{"a", "b", "c"},
		},
		{
			name: "limit respected",
			fetchers: func(r *recorder) []profile.Fetcher {
				return []profile.Fetcher{r.fetcher("a", []string{"u1", "u2", "u3", "u4"}, nil)}
			},
			limit:     2,
			want:      []string{"u1", "u2"},
			wantCalls: []string{"a"},
		},
		{
			name: "no fetchers",
			fetchers: func(*recorder) []profile.Fetcher {
				return nil
			},
			limit:   10,
			wantErr: profile.ErrNoImages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			c := New(tt.fetchers(r), WithPause(0))

			got, err := c.Fetch(context.Background(), "@alice", tt.limit)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCalls, r.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchUnconfigured(t *testing.T) {
	r := &recorder{}
	c := New([]profile.Fetcher{r.fetcher("a", []string{"u1"}, nil)}, WithPause(0))

	for _, name := range []string{"", "   ", "@"} {
		got, err := c.Fetch(context.Background(), name, 10)
		if !errors.Is(err, profile.ErrNotConfigured) {
			t.Errorf("Fetch(%q) error = %v, want ErrNotConfigured", name, err)
		}
		if got != nil {
			t.Errorf("Fetch(%q) = %v, want nil", name, got)
		}
	}
	if len(r.calls) != 0 {
		t.Errorf("fetchers called %v, want none", r.calls)
	}
}

func TestFetchPassesNormalizedUsername(t *testing.T) {
	var gotUser string
	var gotLimit int
	c := New([]profile.Fetcher{profile.FetcherFunc{
		Label: "a",
		Func: func(_ context.Context, username string, limit int) ([]string, error) {
			gotUser, gotLimit = username, limit
			return []string{"u"}, nil
		},
	}}, WithPause(0))

	if _, err := c.Fetch(context.Background(), "  @alice ", 7); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotUser != "alice" || gotLimit != 7 {
		t.Errorf("fetcher got (%q, %d), want (alice, 7)", gotUser, gotLimit)
	}
}

func TestFetchRecoversPanic(t *testing.T) {
	r := &recorder{}
	c := New([]profile.Fetcher{
		profile.FetcherFunc{Label: "bad", Func: func(context.Context, string, int) ([]string, error) {
			panic("selector exploded")
		}},
		r.fetcher("good", []string{"u1"}, nil),
	}, WithPause(0))

	got, attempts, err := c.Trace(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("Trace() error = %v", err)
	}
	if diff := cmp.Diff([]string{"u1"}, got); diff != "" {
		t.Errorf("Trace() mismatch (-want +got):\n%s", diff)
	}
	if len(attempts) != 2 || attempts[0].Err == nil || attempts[0].OK() || !attempts[1].OK() {
		t.Errorf("attempts = %+v, want failed panic then success", attempts)
	}
}

func TestTrace(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder{}
	c := New([]profile.Fetcher{
		r.fetcher("api", nil, boom),
		r.fetcher("page", nil, nil),
		r.fetcher("feeds", []string{"u1", "u2"}, nil),
		r.fetcher("viewers", []string{"u3"}, nil),
	}, WithPause(0))

	_, attempts, err := c.Trace(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("Trace() error = %v", err)
	}

	type row struct {
		Fetcher string
		Count   int
		Failed  bool
	}
	var got []row
	for _, a := range attempts {
		got = append(got, row{a.Fetcher, a.Count, a.Err != nil})
	}
	want := []row{{"api", 0, true}, {"page", 0, true}, {"feeds", 2, false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(attempts[0].Err, boom) || !errors.Is(attempts[1].Err, profile.ErrNoImages) {
		t.Errorf("attempt errors = %v, %v", attempts[0].Err, attempts[1].Err)
	}
}

func TestProbeRunsEveryFetcher(t *testing.T) {
	r := &recorder{}
	c := New([]profile.Fetcher{
		r.fetcher("a", []string{"u1"}, nil),
		r.fetcher("b", []string{"u2", "u3"}, nil),
		r.fetcher("c", nil, errors.New("down")),
	}, WithPause(0))

	attempts, err := c.Probe(context.Background(), "alice", 5)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, r.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	counts := []int{attempts[0].Count, attempts[1].Count, attempts[2].Count}
	if diff := cmp.Diff([]int{1, 2, 0}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, c.Fetchers()); diff != "" {
		t.Errorf("Fetchers() mismatch (-want +got):\n%s", diff)
	}
}

func TestPauseHonoursContext(t *testing.T) {
	r := &recorder{}
	c := New([]profile.Fetcher{
		r.fetcher("a", nil, nil),
		r.fetcher("b", []string{"u1"}, nil),
	}, WithPause(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "alice", 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
	if diff := cmp.Diff([]string{"a"}, r.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPauseBetweenAttempts(t *testing.T) {
	r := &recorder{}
	c := New([]profile.Fetcher{
		r.fetcher("a", nil, nil),
		r.fetcher("b", []string{"u1"}, nil),
	}, WithPause(20*time.Millisecond))

	start := time.Now()
	if _, err := c.Fetch(context.Background(), "alice", 10); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Fetch() took %v, want at least the pause", elapsed)
	}
}
