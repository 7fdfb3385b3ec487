package discovery

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/pevans/newsgather/scraper"
)

// trackingParams are stripped during canonicalisation. Any utm_ parameter
// is stripped as well.
var trackingParams = map[string]struct{}{
	"fbclid":      {},
	"gclid":       {},
	"gclsrc":      {},
	"dclid":       {},
	"msclkid":     {},
	"mc_cid":      {},
	"mc_eid":      {},
	"ocid":        {},
	"cmpid":       {},
	"at_medium":   {},
	"at_campaign": {},
	"at_link_id":  {},
	"ito":         {},
	"ref":         {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	errEmptyURL            = errors.New("canonical url: empty input")
	errMissingSchemeOrHost = errors.New("canonical url: missing scheme or host")
)

// CanonicalURL normalises an article URL so aliases of the same page
// compare equal: scheme and host are lowercased, default ports, fragments
// and tracking parameters are removed, the query is sorted and dot segments
// and trailing slashes are cleaned. The scheme itself is kept.
func CanonicalURL(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errEmptyURL
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("canonical url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errMissingSchemeOrHost
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = canonicalHost(parsed)
	parsed.User = nil
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.RawQuery = cleanQuery(parsed.Query())
	parsed.Path = cleanPath(parsed.Path)
	parsed.RawPath = ""

	return parsed.String(), nil
}

func canonicalHost(u *url.URL) string {
	hostname := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	port := u.Port()
	if port == "" || defaultPorts[u.Scheme] == port {
		return hostname
	}
	return hostname + ":" + port
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	_, ok := trackingParams[lower]
	return ok
}

// cleanQuery drops tracking parameters and sorts what remains.
func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if !isTrackingParam(key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, val := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

// cleanPath resolves dot segments and removes trailing slashes, keeping the
// root "/".
func cleanPath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.TrimRight(path.Clean(p), "/")
}

// SameSite reports whether two URLs or hosts belong to the same site,
// ignoring a leading "www." and allowing either to be a subdomain of the
// other.
func SameSite(a, b string) bool {
	ha, hb := scraper.NormalizeHost(a), scraper.NormalizeHost(b)
	if ha == "" || hb == "" {
		return false
	}
	return ha == hb || strings.HasSuffix(ha, "."+hb) || strings.HasSuffix(hb, "."+ha)
}

// Domain returns the normalised host of a URL, or "" if it has none.
func Domain(rawURL string) string {
	return scraper.NormalizeHost(rawURL)
}
