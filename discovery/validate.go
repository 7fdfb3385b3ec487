package discovery

import (
	"fmt"
	"net/url"
)

// ValidateArticleURL checks that an article URL is absolute http(s). When
// sourceURL is non-empty the article must also be on the same site.
func ValidateArticleURL(articleURL, sourceURL string) error {
	parsed, err := url.Parse(articleURL)
	if err != nil {
		return fmt.Errorf("invalid article URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("article URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return fmt.Errorf("article URL has no host")
	}

	if sourceURL == "" {
		return nil
	}
	if _, err := url.Parse(sourceURL); err != nil {
		return fmt.Errorf("invalid source URL: %w", err)
	}
	if !SameSite(articleURL, sourceURL) {
		return fmt.Errorf("article URL domain (%s) does not match source domain (%s)",
			Domain(articleURL), Domain(sourceURL))
	}
	return nil
}
