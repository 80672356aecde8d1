package httpcache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// domainRateLimiter enforces a minimum delay between requests to the same host.
// It is safe for concurrent use from multiple goroutines.
type domainRateLimiter struct {
	lastRequest sync.Map // map[string]time.Time
	mu          sync.Map // map[string]*sync.Mutex
	minDelay    time.Duration
}

func newDomainRateLimiter(minDelay time.Duration) *domainRateLimiter {
	return &domainRateLimiter{minDelay: minDelay}
}

// Wait blocks until a request to host may be sent, or ctx is done.
func (r *domainRateLimiter) Wait(ctx context.Context, host string, logger *slog.Logger) error {
	if host == "" || r.minDelay <= 0 {
		return nil
	}

	muI, _ := r.mu.LoadOrStore(host, &sync.Mutex{})
	mu, ok := muI.(*sync.Mutex)
	if !ok {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if lastI, ok := r.lastRequest.Load(host); ok {
		if last, ok := lastI.(time.Time); ok {
			if elapsed := time.Since(last); elapsed < r.minDelay {
				wait := r.minDelay - elapsed
				logger.Debug("rate limit pause", "domain", host, "wait", wait.Round(time.Millisecond))
				t := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
		}
	}

	r.lastRequest.Store(host, time.Now())
	return nil
}
