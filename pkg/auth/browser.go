package auth

import (
	"context"
	"log/slog"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser cookie stores
)

// networkDomains maps network names to their cookie domains.
var networkDomains = map[string]string{
	"instagram": "instagram.com",
	"twitter":   "x.com",
}

// networkEssentialCookies lists the cookies worth forwarding per network.
var networkEssentialCookies = map[string][]string{
	"instagram": {"sessionid", "csrftoken", "ds_user_id"},
	"twitter":   {"auth_token", "ct0"},
}

// BrowserSource reads session cookies from local browser cookie stores.
// Useful when the bot runs on a desktop where someone is logged in.
type BrowserSource struct {
	logger *slog.Logger
}

// NewBrowserSource creates a new browser cookie source.
func NewBrowserSource(logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{logger: logger}
}

// Credentials returns the essential cookies for network found in any browser store.
func (s *BrowserSource) Credentials(ctx context.Context, network string) (map[string]string, error) {
	domain, ok := networkDomains[network]
	if !ok {
		return nil, nil //nolint:nilnil // no cookies for unknown network is not an error
	}

	s.logger.DebugContext(ctx, "reading browser cookies", "network", network, "domain", domain)

	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "network", network, "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not a fatal error
	}

	cookies := filterEssential(kookies, networkEssentialCookies[network])
	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // no browser cookies is not an error
	}
	s.logger.Info("browser cookies found", "network", network, "count", len(cookies))
	return cookies, nil
}

func filterEssential(kookies []*kooky.Cookie, essential []string) map[string]string {
	want := make(map[string]bool, len(essential))
	for _, name := range essential {
		want[name] = true
	}

	cookies := make(map[string]string)
	for _, c := range kookies {
		if c == nil || c.Value == "" {
			continue
		}
		if len(want) == 0 || want[c.Name] {
			cookies[c.Name] = c.Value
		}
	}
	return cookies
}
