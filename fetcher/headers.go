package fetcher

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
)

// userAgents is the identity pool, rotated round-robin by request count.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
	"Mozilla/5.0 (compatible; Feedly/1.0; +http://www.feedly.com/fetcher.html)",
	"Mozilla/5.0 (compatible; newsgather/1.0; +https://github.com/pevans/newsgather)",
}

var acceptValues = []string{
	"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"text/html,application/xhtml+xml,application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.7",
}

var acceptLanguages = []string{
	"en-GB,en;q=0.9",
	"en-GB,en-US;q=0.9,en;q=0.8",
	"en-US,en;q=0.9",
	"en;q=0.8",
}

// fingerprintHeaders are dropped for government sites and after repeated
// 403 responses.
var fingerprintHeaders = []string{
	"Sec-Ch-Ua",
	"Sec-Ch-Ua-Mobile",
	"Sec-Ch-Ua-Platform",
	"Sec-Fetch-Dest",
	"Sec-Fetch-Mode",
	"Sec-Fetch-Site",
	"Sec-Fetch-User",
	"Upgrade-Insecure-Requests",
}

const genericReferer = "https://www.google.com/"

// headerMode selects how a request presents itself.
type headerMode int

const (
	modeBrowser headerMode = iota
	modeGovernment
	modeStripped
)

func (m headerMode) String() string {
	switch m {
	case modeGovernment:
		return "government"
	case modeStripped:
		return "stripped"
	default:
		return "browser"
	}
}

// UserAgentFor returns the user agent used for the given request count.
func UserAgentFor(requestCount int) string {
	if requestCount < 0 {
		requestCount = 0
	}
	return userAgents[requestCount%len(userAgents)]
}

// applyHeaders sets the identity headers for one attempt.
func applyHeaders(req *http.Request, target *url.URL, mode headerMode, requestCount int) {
	h := req.Header
	h.Set("User-Agent", UserAgentFor(requestCount))
	h.Set("Accept", acceptValues[rand.IntN(len(acceptValues))])
	h.Set("Accept-Language", acceptLanguages[rand.IntN(len(acceptLanguages))])
	h.Set("Cache-Control", "no-cache")

	switch mode {
	case modeGovernment:
		h.Set("DNT", "1")
		h.Set("Sec-GPC", "1")
		if requestCount%2 == 1 {
			h.Set("Referer", homePage(target))
		}
	case modeStripped:
		h.Set("Referer", genericReferer)
		h.Set("X-Forwarded-For", spoofedAddress())
	default:
		h.Set("Sec-Ch-Ua", `"Chromium";v="126", "Not.A/Brand";v="24"`)
		h.Set("Sec-Ch-Ua-Mobile", "?0")
		h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
		h.Set("Sec-Fetch-Dest", "document")
		h.Set("Sec-Fetch-Mode", "navigate")
		h.Set("Sec-Fetch-Site", "none")
		h.Set("Sec-Fetch-User", "?1")
		h.Set("Upgrade-Insecure-Requests", "1")
		if requestCount%2 == 1 {
			h.Set("Referer", homePage(target))
		}
	}

	if mode != modeBrowser {
		for _, name := range fingerprintHeaders {
			h.Del(name)
		}
	}
}

func homePage(target *url.URL) string {
	return target.Scheme + "://" + target.Host + "/"
}

// spoofedAddress returns a random address from a public unicast range.
func spoofedAddress() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		rand.IntN(180)+20, rand.IntN(256), rand.IntN(256), rand.IntN(253)+1)
}
