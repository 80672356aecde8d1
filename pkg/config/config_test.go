package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load([]string{"--discord-token", "tok"}, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.DiscordToken != "tok" {
		t.Errorf("DiscordToken = %q", c.DiscordToken)
	}
	if c.InstagramInterval != 30*time.Minute || c.TwitterInterval != 15*time.Minute {
		t.Errorf("intervals = %v, %v", c.InstagramInterval, c.TwitterInterval)
	}
	if c.InstagramLimit != 20 || c.TwitterLimit != 200 {
		t.Errorf("limits = %d, %d", c.InstagramLimit, c.TwitterLimit)
	}
	if c.Pause != time.Second || c.CacheTTL != 10*time.Minute || c.Database != "scran.db" {
		t.Errorf("pause/ttl/db = %v, %v, %q", c.Pause, c.CacheTTL, c.Database)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "DISCORD_TOKEN=from-file\nTWITTER_INTERVAL=5m\nINSTAGRAM_LIMIT=7\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets process variables; register them for cleanup.
	for _, k := range []string{"DISCORD_TOKEN", "TWITTER_INTERVAL", "INSTAGRAM_LIMIT"} {
		t.Setenv(k, "")
		os.Unsetenv(k) //nolint:errcheck,gosec // restored by t.Setenv
	}

	c, err := Load(nil, envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.DiscordToken != "from-file" || c.TwitterInterval != 5*time.Minute || c.InstagramLimit != 7 {
		t.Errorf("Load() = %+v", c)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env")
	t.Setenv("TWITTER_LIMIT", "50")

	c, err := Load([]string{"--twitter-limit", "10"}, filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.DiscordToken != "env" || c.TwitterLimit != 10 {
		t.Errorf("Load() token=%q limit=%d", c.DiscordToken, c.TwitterLimit)
	}
}

func TestLoadErrors(t *testing.T) {
	none := filepath.Join(t.TempDir(), "none")
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN") //nolint:errcheck,gosec // restored by t.Setenv

	tests := []struct {
		name string
		args []string
	}{
		{"missing token", nil},
		{"bad duration", []string{"--discord-token", "t", "--instagram-interval", "soon"}},
		{"zero interval", []string{"--discord-token", "t", "--twitter-interval", "0s"}},
		{"negative limit", []string{"--discord-token", "t", "--instagram-limit", "-1"}},
		{"unknown flag", []string{"--discord-token", "t", "--bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c, err := Load(tt.args, none); err == nil {
				t.Errorf("Load() = %+v, want error", c)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("INSTAGRAM_SESSIONID", "sess")
	c := &Config{TwitterBearerToken: "bearer"}
	src := c.Credentials(nil)

	tw, err := src.Credentials(context.Background(), "twitter")
	if err != nil || tw[auth.BearerTokenKey] != "bearer" {
		t.Errorf("twitter credentials = %v, %v", tw, err)
	}
	ig, err := src.Credentials(context.Background(), "instagram")
	if err != nil || ig["sessionid"] != "sess" {
		t.Errorf("instagram credentials = %v, %v", ig, err)
	}
}

func TestEndpoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.toml")
	if err := os.WriteFile(path, []byte("[twitter]\norder = [\"syndication\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ep, err := (&Config{ProvidersFile: path}).Endpoints()
	if err != nil {
		t.Fatalf("Endpoints() error = %v", err)
	}
	if len(ep.Twitter.Order) != 1 || ep.Twitter.Order[0] != "syndication" {
		t.Errorf("Twitter.Order = %v", ep.Twitter.Order)
	}
	if len(ep.Instagram.Order) == 0 {
		t.Error("Instagram defaults lost")
	}
}
