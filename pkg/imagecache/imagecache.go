// Package imagecache is the per-guild list of scraped image URLs for one network.
package imagecache

import (
	"context"
	"fmt"

	"github.com/codeGROOVE-dev/scran/pkg/profile"
	"github.com/codeGROOVE-dev/scran/pkg/store"
)

// Cache reads and replaces the image list of a (guild, network) pair.
// Lists are stored as given: no validation, no size cap.
type Cache struct {
	store   store.Store
	network profile.Network
}

// New returns the cache of network backed by s.
func New(s store.Store, network profile.Network) *Cache {
	return &Cache{store: s, network: network}
}

// Get returns the cached URLs in provider order, or an empty slice.
func (c *Cache) Get(ctx context.Context, guild string) ([]string, error) {
	urls, err := c.store.Images(ctx, guild, c.network)
	if err != nil {
		return nil, fmt.Errorf("read %s image cache: %w", c.network, err)
	}
	return urls, nil
}

// Set overwrites the cached URLs.
func (c *Cache) Set(ctx context.Context, guild string, urls []string) error {
	if err := c.store.SetImages(ctx, guild, c.network, urls); err != nil {
		return fmt.Errorf("write %s image cache: %w", c.network, err)
	}
	return nil
}
