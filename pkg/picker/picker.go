// Package picker selects a random image from a cached list.
package picker

import "math/rand/v2"

// Pick returns a uniformly random element of urls. ok is false when urls is empty.
func Pick(urls []string) (url string, ok bool) {
	if len(urls) == 0 {
		return "", false
	}
	return urls[rand.IntN(len(urls))], true //nolint:gosec // not security sensitive
}
