// Package auth resolves optional per-network credentials: session cookies and API bearer tokens.
package auth

import (
	"context"
	"sort"
	"strings"
)

// BearerTokenKey is the credential key holding an API bearer token.
const BearerTokenKey = "bearer_token"

// Source provides credentials for a network as name/value pairs.
// A source with nothing to offer returns a nil map and a nil error.
type Source interface {
	Credentials(ctx context.Context, network string) (map[string]string, error)
}

// ChainSources returns the credentials of the first source that has any.
func ChainSources(ctx context.Context, network string, sources ...Source) (map[string]string, error) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		creds, err := src.Credentials(ctx, network)
		if err != nil {
			return nil, err
		}
		if len(creds) > 0 {
			return creds, nil
		}
	}
	return nil, nil //nolint:nilnil // no source had credentials, but this is not an error
}

// Chain combines sources into one, tried in order.
type Chain []Source

// Credentials implements Source.
func (c Chain) Credentials(ctx context.Context, network string) (map[string]string, error) {
	return ChainSources(ctx, network, c...)
}

// CookieHeader renders the cookie entries of creds as a Cookie header value, sorted by name.
// The bearer token is never sent as a cookie.
func CookieHeader(creds map[string]string) string {
	names := make([]string, 0, len(creds))
	for name, value := range creds {
		if name == BearerTokenKey || value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+creds[name])
	}
	return strings.Join(parts, "; ")
}
