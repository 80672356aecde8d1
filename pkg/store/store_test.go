package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sql, err := OpenSQL(filepath.Join(t.TempDir(), "db", "scran.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQL() error = %v", err)
	}
	t.Cleanup(func() { sql.Close() }) //nolint:errcheck,gosec // test cleanup
	return map[string]Store{"memory": NewMemory(), "sql": sql}
}

func TestStoreDefaults(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.Profile(ctx, "g1", profile.Instagram)
			if err != nil || p != "" {
				t.Errorf("Profile() = %q, %v; want empty", p, err)
			}
			imgs, err := s.Images(ctx, "g1", profile.Instagram)
			if err != nil {
				t.Fatalf("Images() error = %v", err)
			}
			if imgs == nil || len(imgs) != 0 {
				t.Errorf("Images() = %#v, want empty non-nil slice", imgs)
			}
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.SetImages(ctx, "g1", profile.Twitter, []string{"a", "b"}); err != nil {
				t.Fatalf("SetImages() error = %v", err)
			}
			if err := s.SetImages(ctx, "g1", profile.Twitter, []string{"c"}); err != nil {
				t.Fatalf("SetImages() error = %v", err)
			}
			got, err := s.Images(ctx, "g1", profile.Twitter)
			if err != nil {
				t.Fatalf("Images() error = %v", err)
			}
			if diff := cmp.Diff([]string{"c"}, got); diff != "" {
				t.Errorf("Images() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			mustSetProfile(t, s, "g1", profile.Instagram, "alice")
			mustSetProfile(t, s, "g1", profile.Twitter, "jack")
			mustSetProfile(t, s, "g2", profile.Instagram, "bob")
			if err := s.SetImages(ctx, "g1", profile.Instagram, []string{"i1", "i2"}); err != nil {
				t.Fatal(err)
			}

			// Setting images keeps the profile and the reverse.
			if p, _ := s.Profile(ctx, "g1", profile.Instagram); p != "alice" { //nolint:errcheck // checked via value
				t.Errorf("Profile(g1, instagram) = %q, want alice", p)
			}
			mustSetProfile(t, s, "g1", profile.Instagram, "carol")
			got, err := s.Images(ctx, "g1", profile.Instagram)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"i1", "i2"}, got); diff != "" {
				t.Errorf("Images() after SetProfile mismatch (-want +got):\n%s", diff)
			}

			if got, _ := s.Images(ctx, "g1", profile.Twitter); len(got) != 0 { //nolint:errcheck // checked via value
				t.Errorf("Images(g1, twitter) = %v, want empty", got)
			}
		})
	}
}

func TestStoreGuilds(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			mustSetProfile(t, s, "g2", profile.Instagram, "bob")
			mustSetProfile(t, s, "g1", profile.Instagram, "alice")
			mustSetProfile(t, s, "g3", profile.Twitter, "jack")
			mustSetProfile(t, s, "g4", profile.Instagram, "gone")
			mustSetProfile(t, s, "g4", profile.Instagram, "")
			if err := s.SetImages(ctx, "g5", profile.Instagram, []string{"x"}); err != nil {
				t.Fatal(err)
			}

			got, err := s.Guilds(ctx, profile.Instagram)
			if err != nil {
				t.Fatalf("Guilds() error = %v", err)
			}
			if diff := cmp.Diff([]string{"g1", "g2"}, got); diff != "" {
				t.Errorf("Guilds() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSQLPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scran.db")

	s, err := OpenSQL(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	mustSetProfile(t, s, "g1", profile.Twitter, "jack")
	if err := s.SetImages(ctx, "g1", profile.Twitter, []string{"u1", "u2"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenSQL(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close() //nolint:errcheck // test cleanup

	got, err := s.Images(ctx, "g1", profile.Twitter)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"u1", "u2"}, got); diff != "" {
		t.Errorf("Images() after reopen mismatch (-want +got):\n%s", diff)
	}
}

func TestStringListScan(t *testing.T) {
	tests := []struct {
		src  any
		want StringList
	}{
		{nil, nil},
		{"", nil},
		{`["a","b"]`, StringList{"a", "b"}},
		{[]byte(`["c"]`), StringList{"c"}},
	}
	for _, tt := range tests {
		var l StringList
		if err := l.Scan(tt.src); err != nil {
			t.Errorf("Scan(%v) error = %v", tt.src, err)
		}
		if diff := cmp.Diff(tt.want, l); diff != "" {
			t.Errorf("Scan(%v) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}

	var l StringList
	if err := l.Scan(42); err == nil {
		t.Error("Scan(int) expected error")
	}
	if v, _ := StringList(nil).Value(); v != "[]" { //nolint:errcheck // checked via value
		t.Errorf("Value(nil) = %v, want []", v)
	}
}

func mustSetProfile(t *testing.T, s Store, guild string, network profile.Network, name string) {
	t.Helper()
	if err := s.SetProfile(context.Background(), guild, network, name); err != nil {
		t.Fatalf("SetProfile(%s, %s, %q) error = %v", guild, network, name, err)
	}
}
