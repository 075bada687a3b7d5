package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// Length limits for the brand context text.
const (
	minAboutLength    = 100
	maxAboutLength    = 1000
	minHomepageLength = 50
	maxHomepageLength = 500
)

var aboutPaths = []string{"/pages/about", "/pages/about-us", "/about", "/story"}

var aboutContentSelectors = []string{".about-content", ".page-content", "main", ".content", "article"}

var homepageHeroSelectors = []string{".hero", ".banner", ".intro", ".description"}

// BrandContextExtractor captures the brand's about/story text.
type BrandContextExtractor struct {
	fetcher  insights.Fetcher
	enricher insights.Enricher
	logger   *zap.Logger
}

// NewBrandContextExtractor builds a BrandContextExtractor. enricher may be nil.
func NewBrandContextExtractor(fetcher insights.Fetcher, enricher insights.Enricher, logger *zap.Logger) *BrandContextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrandContextExtractor{fetcher: fetcher, enricher: enricher, logger: logger}
}

// BrandContext prefers a dedicated about page, falling back to homepage
// hero sections. About text is summarized when enrichment is available,
// otherwise truncated; homepage text gets the shorter cap.
func (e *BrandContextExtractor) BrandContext(ctx context.Context, doc *goquery.Document, baseURL string) string {
	for _, path := range aboutPaths {
		url := insights.ResolveURL(baseURL, path)
		body, err := e.fetcher.Fetch(ctx, url)
		if err != nil {
			e.logger.Debug("about page unavailable", zap.String("url", url), zap.Error(err))
			continue
		}
		aboutDoc, err := parseHTML(body)
		if err != nil {
			continue
		}
		aboutDoc.Find("script, style, nav, header, footer").Remove()

		for _, selector := range aboutContentSelectors {
			sel := aboutDoc.Find(selector).First()
			if sel.Length() == 0 {
				continue
			}
			text := strings.TrimSpace(sel.Text())
			if len(text) <= minAboutLength {
				continue
			}
			if e.enricher != nil {
				summary, err := e.enricher.SummarizeText(ctx, text)
				if err == nil && summary != "" {
					return summary
				}
				e.logger.Warn("brand context enrichment failed, truncating", zap.Error(err))
			}
			return truncateRunes(text, maxAboutLength)
		}
	}

	for _, selector := range homepageHeroSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) > minHomepageLength {
			return truncateRunes(text, maxHomepageLength)
		}
	}

	return ""
}
