// Network registration and interface definitions.

package profile

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/scran/pkg/auth"
	"github.com/codeGROOVE-dev/scran/pkg/httpcache"
	"github.com/codeGROOVE-dev/scran/pkg/providers"
)

// Platform describes one supported network and knows how to build its ordered fetchers.
// Each network package registers itself via Register() in an init() function.
type Platform interface {
	// Name returns the network identifier.
	Name() Network

	// Title is the display name used in chat replies ("Instagram").
	Title() string

	// Color is the embed accent colour for chat replies.
	Color() int

	// Interval is the default time between scheduled scrape sweeps.
	Interval() time.Duration

	// Limit is the default number of images requested per scrape.
	Limit() int

	// Handle extracts the account name from user input: a handle, an @handle or a profile URL.
	// It returns "" when the input names no account.
	Handle(input string) string

	// Fetchers returns the provider chain members, most authoritative first.
	Fetchers(cfg *FetcherConfig) []Fetcher
}

// FetcherConfig holds the shared dependencies handed to every fetcher.
type FetcherConfig struct {
	Client      *httpcache.Client
	Endpoints   providers.Endpoints
	Credentials auth.Source
	Logger      *slog.Logger
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Network]Platform)
)

// Register adds a network to the global registry.
func Register(p Platform) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := p.Name()
	if _, exists := registry[name]; exists {
		panic("network already registered: " + string(name))
	}
	registry[name] = p
}

// Platforms returns all registered networks sorted by name.
func Platforms() []Platform {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Platform, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Lookup returns the network with the given name, or nil if it is not registered.
func Lookup(name Network) Platform {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return registry[name]
}
