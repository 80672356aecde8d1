// Package store persists per-guild profile settings and cached image lists.
package store

import (
	"context"

	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

// Store is the durable key/value state behind every network's gallery.
// Each (guild, network) pair has a profile name ("" when unconfigured) and an ordered image list.
type Store interface {
	// Profile returns the configured profile, or "" when none is set.
	Profile(ctx context.Context, guild string, network profile.Network) (string, error)
	SetProfile(ctx context.Context, guild string, network profile.Network, name string) error

	// Images returns the cached image list, or an empty slice when nothing was ever stored.
	Images(ctx context.Context, guild string, network profile.Network) ([]string, error)
	// SetImages replaces the cached list wholesale.
	SetImages(ctx context.Context, guild string, network profile.Network, urls []string) error

	// Guilds lists guilds that have a profile configured for network, sorted by ID.
	Guilds(ctx context.Context, network profile.Network) ([]string, error)

	Close() error
}
