package store

import (
	"context"
	"slices"
	"sync"

	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

type key struct {
	guild   string
	network profile.Network
}

type record struct {
	profile string
	images  []string
}

// Memory is a process-local Store, used by the one-shot CLI and tests.
type Memory struct {
	data map[key]record
	mu   sync.RWMutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[key]record)}
}

// Profile implements Store.
func (m *Memory) Profile(_ context.Context, guild string, network profile.Network) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key{guild, network}].profile, nil
}

// SetProfile implements Store.
func (m *Memory) SetProfile(_ context.Context, guild string, network profile.Network, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{guild, network}
	r := m.data[k]
	r.profile = name
	m.data[k] = r
	return nil
}

// Images implements Store.
func (m *Memory) Images(_ context.Context, guild string, network profile.Network) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.data[key{guild, network}].images...), nil
}

// SetImages implements Store.
func (m *Memory) SetImages(_ context.Context, guild string, network profile.Network, urls []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{guild, network}
	r := m.data[k]
	r.images = slices.Clone(urls)
	m.data[k] = r
	return nil
}

// Guilds implements Store.
func (m *Memory) Guilds(_ context.Context, network profile.Network) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k, r := range m.data {
		if k.network == network && r.profile != "" {
			out = append(out, k.guild)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Close implements Store.
func (*Memory) Close() error { return nil }
