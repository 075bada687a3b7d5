package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

type socialPlatform struct {
	name    string
	pattern *regexp.Regexp
	assign  func(*insights.SocialHandles, string)
	get     func(insights.SocialHandles) string
}

var socialPlatforms = []socialPlatform{
	{
		name:    "instagram",
		pattern: regexp.MustCompile(`(?i)instagram\.com/([^/?]+)`),
		assign:  func(h *insights.SocialHandles, v string) { h.Instagram = v },
		get:     func(h insights.SocialHandles) string { return h.Instagram },
	},
	{
		name:    "facebook",
		pattern: regexp.MustCompile(`(?i)facebook\.com/([^/?]+)`),
		assign:  func(h *insights.SocialHandles, v string) { h.Facebook = v },
		get:     func(h insights.SocialHandles) string { return h.Facebook },
	},
	{
		name:    "twitter",
		pattern: regexp.MustCompile(`(?i)twitter\.com/([^/?]+)`),
		assign:  func(h *insights.SocialHandles, v string) { h.Twitter = v },
		get:     func(h insights.SocialHandles) string { return h.Twitter },
	},
	{
		name:    "tiktok",
		pattern: regexp.MustCompile(`(?i)tiktok\.com/@?([^/?]+)`),
		assign:  func(h *insights.SocialHandles, v string) { h.TikTok = v },
		get:     func(h insights.SocialHandles) string { return h.TikTok },
	},
	{
		name:    "youtube",
		pattern: regexp.MustCompile(`(?i)youtube\.com/(?:c/|channel/|user/)?([^/?]+)`),
		assign:  func(h *insights.SocialHandles, v string) { h.YouTube = v },
		get:     func(h insights.SocialHandles) string { return h.YouTube },
	},
	{
		name:    "linkedin",
		pattern: regexp.MustCompile(`(?i)linkedin\.com/(?:company/|in/)?([^/?]+)`),
		assign:  func(h *insights.SocialHandles, v string) { h.LinkedIn = v },
		get:     func(h insights.SocialHandles) string { return h.LinkedIn },
	},
	{
		name:    "pinterest",
		pattern: regexp.MustCompile(`(?i)pinterest\.com/([^/?]+)`),
		assign:  func(h *insights.SocialHandles, v string) { h.Pinterest = v },
		get:     func(h insights.SocialHandles) string { return h.Pinterest },
	},
}

// SocialExtractor finds social platform handles among the page's anchors.
type SocialExtractor struct{}

// NewSocialExtractor builds a SocialExtractor.
func NewSocialExtractor() *SocialExtractor {
	return &SocialExtractor{}
}

// Social scans every anchor. For each platform the first matching link
// wins; the handle is the path segment after the platform domain, falling
// back to the full link when the segment cannot be isolated.
func (e *SocialExtractor) Social(doc *goquery.Document) insights.SocialHandles {
	var handles insights.SocialHandles

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		for _, platform := range socialPlatforms {
			if !strings.Contains(lower, platform.name) {
				continue
			}
			if platform.get(handles) != "" {
				break
			}
			if handle := extractSocialHandle(href, platform); handle != "" {
				platform.assign(&handles, handle)
			}
			break
		}
	})

	return handles
}

func extractSocialHandle(href string, platform socialPlatform) string {
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	if m := platform.pattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return href
}
