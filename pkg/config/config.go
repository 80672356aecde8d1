// Package config loads the bot's settings from flags, the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

// Config is the daemon configuration. Every flag has an environment variable equivalent.
type Config struct {
	DiscordToken string `long:"discord-token" env:"DISCORD_TOKEN" description:"Discord bot token" required:"true"`
	GuildID      string `long:"guild" env:"DISCORD_GUILD_ID" description:"Register commands in this guild only instead of globally"`

	Database      string `long:"database" env:"SCRAN_DATABASE" default:"scran.db" description:"SQLite database file"`
	ProvidersFile string `long:"providers" env:"SCRAN_PROVIDERS" description:"TOML file overriding provider endpoints"`

	CacheDir string        `long:"cache-dir" env:"SCRAN_CACHE_DIR" description:"HTTP response cache directory (default ~/.cache/scran)"`
	CacheTTL time.Duration `long:"cache-ttl" env:"SCRAN_CACHE_TTL" default:"10m" description:"HTTP response cache lifetime"`
	NoCache  bool          `long:"no-cache" env:"SCRAN_NO_CACHE" description:"Disable the HTTP response cache"`

	InstagramInterval time.Duration `long:"instagram-interval" env:"INSTAGRAM_INTERVAL" default:"30m" description:"Time between Instagram sweeps"`
	InstagramLimit    int           `long:"instagram-limit" env:"INSTAGRAM_LIMIT" default:"20" description:"Images fetched per Instagram scrape"`
	TwitterInterval   time.Duration `long:"twitter-interval" env:"TWITTER_INTERVAL" default:"15m" description:"Time between Twitter sweeps"`
	TwitterLimit      int           `long:"twitter-limit" env:"TWITTER_LIMIT" default:"200" description:"Images fetched per Twitter scrape"`
	Pause             time.Duration `long:"pause" env:"SCRAN_PAUSE" default:"1s" description:"Pause between provider attempts"`

	TwitterBearerToken string `long:"twitter-bearer-token" env:"TWITTER_BEARER_TOKEN" description:"Twitter API v2 app bearer token"`
	BrowserCookies     bool   `long:"browser-cookies" env:"SCRAN_BROWSER_COOKIES" description:"Read session cookies from local browsers"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads envFiles (".env" when none are given) into the environment, then parses args.
// Missing env files are ignored and variables already set win over file values.
// It returns nil, nil when help was requested.
func Load(args []string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var c Config
	parser := flags.NewParser(&c, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil //nolint:nilnil // help was printed
		}
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.InstagramInterval <= 0 || c.TwitterInterval <= 0 {
		return errors.New("sweep intervals must be positive")
	}
	if c.InstagramLimit <= 0 || c.TwitterLimit <= 0 {
		return errors.New("image limits must be positive")
	}
	if c.Pause < 0 {
		return errors.New("pause must not be negative")
	}
	return nil
}

// Endpoints loads the provider endpoints, applying ProvidersFile when set.
func (c *Config) Endpoints() (providers.Endpoints, error) {
	return providers.Load(c.ProvidersFile)
}

// Credentials builds the credential chain: configured tokens, then environment, then browsers when enabled.
func (c *Config) Credentials(logger *slog.Logger) auth.Source {
	chain := auth.Chain{
		auth.NewStaticSource(map[string]map[string]string{
			"twitter": {auth.BearerTokenKey: c.TwitterBearerToken},
		}),
		auth.EnvSource{},
	}
	if c.BrowserCookies {
		chain = append(chain, auth.NewBrowserSource(logger))
	}
	return chain
}
