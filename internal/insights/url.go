package insights

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeSiteURL canonicalizes a storefront URL: a schemeless input gets
// an https:// prefix and exactly one trailing slash is stripped.
//
//	"example.com"          -> "https://example.com"
//	"https://example.com/" -> "https://example.com"
func NormalizeSiteURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return strings.TrimSuffix(s, "/"), nil
}

// ResolveURL makes href absolute against base. Inputs that are already
// absolute (or that fail to parse) come back unchanged.
func ResolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
