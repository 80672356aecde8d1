package twitter

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const mediaHost = "https://pbs.twimg.com/"

// NitterImages extracts full-size photo URLs from a Nitter media timeline.
// Nitter proxies images as /pic/<escaped path>; those are mapped back to pbs.twimg.com.
func NitterImages(body []byte, _ *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var urls []string
	doc.Find("a.still-image").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if u := nitterPic(href); u != "" {
				urls = append(urls, u)
			}
		}
	})
	if len(urls) > 0 {
		return urls
	}

	doc.Find(".attachment img, .gallery-row img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			if u := nitterPic(src); u != "" {
				urls = append(urls, u)
			}
		}
	})
	return urls
}

// nitterPic maps "/pic/orig/media%2FABC.jpg" to "https://pbs.twimg.com/media/ABC.jpg".
// Absolute twimg URLs pass through.
func nitterPic(ref string) string {
	if strings.HasPrefix(ref, "https://") && strings.Contains(ref, "twimg.com/") {
		return ref
	}
	idx := strings.Index(ref, "/pic/")
	if idx < 0 {
		return ""
	}
	path, err := url.PathUnescape(ref[idx+len("/pic/"):])
	if err != nil {
		return ""
	}
	path = strings.TrimPrefix(path, "orig/")
	if !strings.HasPrefix(path, "media/") {
		return ""
	}
	return mediaHost + path
}
