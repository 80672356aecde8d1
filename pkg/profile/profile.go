// Package profile defines the common types shared by the image scrapers of every network.
package profile

import (
	"context"
	"errors"
	"strings"
)

// Common errors returned by fetchers, chains and the gallery service.
var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrNotConfigured = errors.New("no profile configured")
	ErrNoImages      = errors.New("no images found")
)

// Network identifies a social network, e.g. "instagram" or "twitter".
type Network string

// Network names.
const (
	Instagram Network = "instagram"
	Twitter   Network = "twitter"
)

func (n Network) String() string { return string(n) }

// Normalize cleans a user-supplied handle: surrounding whitespace and a leading "@" are removed.
// An empty result means the profile is unconfigured.
func Normalize(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "@")
}

// Fetcher is one strategy for retrieving image URLs of a profile from one source.
//
// Implementations return at most limit URLs, never an empty string, and report every
// failure (network, status, payload, parse) as an error with a nil slice.
type Fetcher interface {
	// Name is a short human-readable label used in logs and debug output.
	Name() string
	Fetch(ctx context.Context, username string, limit int) ([]string, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc struct {
	Label string
	Func  func(ctx context.Context, username string, limit int) ([]string, error)
}

// Name returns the label.
func (f FetcherFunc) Name() string { return f.Label }

// Fetch calls the wrapped function.
func (f FetcherFunc) Fetch(ctx context.Context, username string, limit int) ([]string, error) {
	return f.Func(ctx, username, limit)
}
