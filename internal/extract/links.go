package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

type linkCategory struct {
	keywords []string
	assign   func(*insights.ImportantLinks, string)
	get      func(insights.ImportantLinks) string
}

var linkCategories = []linkCategory{
	{
		keywords: []string{"track", "order", "tracking"},
		assign:   func(l *insights.ImportantLinks, v string) { l.OrderTracking = v },
		get:      func(l insights.ImportantLinks) string { return l.OrderTracking },
	},
	{
		keywords: []string{"contact", "support", "help"},
		assign:   func(l *insights.ImportantLinks, v string) { l.ContactUs = v },
		get:      func(l insights.ImportantLinks) string { return l.ContactUs },
	},
	{
		keywords: []string{"blog", "news", "articles"},
		assign:   func(l *insights.ImportantLinks, v string) { l.Blogs = v },
		get:      func(l insights.ImportantLinks) string { return l.Blogs },
	},
	{
		keywords: []string{"size", "guide", "sizing"},
		assign:   func(l *insights.ImportantLinks, v string) { l.SizeGuide = v },
		get:      func(l insights.ImportantLinks) string { return l.SizeGuide },
	},
	{
		keywords: []string{"shipping", "delivery"},
		assign:   func(l *insights.ImportantLinks, v string) { l.ShippingInfo = v },
		get:      func(l insights.ImportantLinks) string { return l.ShippingInfo },
	},
	{
		keywords: []string{"career", "job", "work"},
		assign:   func(l *insights.ImportantLinks, v string) { l.Careers = v },
		get:      func(l insights.ImportantLinks) string { return l.Careers },
	},
	{
		keywords: []string{"about", "story", "company"},
		assign:   func(l *insights.ImportantLinks, v string) { l.AboutUs = v },
		get:      func(l insights.ImportantLinks) string { return l.AboutUs },
	},
}

// LinkExtractor classifies anchors into fixed link categories.
type LinkExtractor struct{}

// NewLinkExtractor builds a LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Links walks anchors in document order. A link matches a category when
// any keyword appears in the anchor text or href (case-insensitive); the
// first match per category wins. Relative hrefs are resolved against base.
func (e *LinkExtractor) Links(doc *goquery.Document, baseURL string) insights.ImportantLinks {
	var links insights.ImportantLinks

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.ToLower(strings.TrimSpace(s.Text()))

		if strings.HasPrefix(href, "/") {
			href = insights.ResolveURL(baseURL, href)
		}
		lowerHref := strings.ToLower(href)

		for _, cat := range linkCategories {
			if !matchesAny(text, lowerHref, cat.keywords) {
				continue
			}
			if cat.get(links) == "" {
				cat.assign(&links, href)
			}
			break
		}
	})

	return links
}

func matchesAny(text, href string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) || strings.Contains(href, kw) {
			return true
		}
	}
	return false
}
