package auth

import "context"

// StaticSource provides fixed credentials per network, e.g. from the bot's configuration.
type StaticSource struct {
	creds map[string]map[string]string
}

// NewStaticSource creates a source from network -> key -> value.
func NewStaticSource(creds map[string]map[string]string) *StaticSource {
	return &StaticSource{creds: creds}
}

// Credentials returns a copy of the configured credentials for network.
func (s *StaticSource) Credentials(_ context.Context, network string) (map[string]string, error) {
	src := s.creds[network]
	result := make(map[string]string, len(src))
	for k, v := range src {
		if v != "" {
			result[k] = v
		}
	}
	if len(result) == 0 {
		return nil, nil //nolint:nilnil // empty static source is not an error
	}
	return result, nil
}
