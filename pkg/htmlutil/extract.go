// Package htmlutil provides the pattern and DOM extraction helpers shared by image fetchers.
package htmlutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	imageURLPattern = regexp.MustCompile(`(?i)https?://[^"'\s<>()\\]+?\.(?:jpe?g|png|webp)(?:\?[^"'\s<>\\]*)?`)
	jsonEscapes     = strings.NewReplacer(`\u0026`, "&", `\/`, "/", `\u002F`, "/")
)

// Unescape decodes HTML entities and the JSON escapes commonly found in URLs embedded in scripts.
func Unescape(s string) string {
	return html.UnescapeString(jsonEscapes.Replace(s))
}

// ImageURLs returns every absolute .jpg/.jpeg/.png/.webp URL found anywhere in the text, in order of appearance.
func ImageURLs(text string) []string {
	matches := imageURLPattern.FindAllString(jsonEscapes.Replace(text), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, html.UnescapeString(m))
	}
	return out
}

// ImgSources parses an HTML fragment and returns the sources of its images:
// img src, lazy-load data-src and the first srcset candidate, in document order.
func ImgSources(htmlContent string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find("img, source").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "data-src"} {
			if v, ok := s.Attr(attr); ok && strings.HasPrefix(v, "http") {
				out = append(out, strings.TrimSpace(v))
				return
			}
		}
		if v, ok := s.Attr("srcset"); ok {
			first := strings.Fields(strings.Split(v, ",")[0])
			if len(first) > 0 && strings.HasPrefix(first[0], "http") {
				out = append(out, first[0])
			}
		}
	})
	return out
}

// FilterHosts keeps URLs containing at least one of the given substrings.
// An empty hosts list keeps everything.
func FilterHosts(urls, hosts []string) []string {
	if len(hosts) == 0 {
		return urls
	}
	var out []string
	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, h := range hosts {
			if strings.Contains(lower, h) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// Compact drops empty and duplicate URLs, keeping first-seen order, and truncates to limit.
// A non-positive limit yields nil.
func Compact(urls []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) >= limit {
			break
		}
	}
	return out
}
