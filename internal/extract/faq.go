package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// maxFAQs caps the returned question/answer list.
const maxFAQs = 20

var faqPaths = []string{
	"/pages/faq",
	"/pages/frequently-asked-questions",
	"/faq",
	"/help",
	"/support",
}

// FAQExtractor finds question/answer pairs on dedicated help pages.
type FAQExtractor struct {
	fetcher  insights.Fetcher
	enricher insights.Enricher
	logger   *zap.Logger
}

// NewFAQExtractor builds a FAQExtractor. enricher may be nil.
func NewFAQExtractor(fetcher insights.Fetcher, enricher insights.Enricher, logger *zap.Logger) *FAQExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FAQExtractor{fetcher: fetcher, enricher: enricher, logger: logger}
}

// FAQs walks the candidate paths in order and stops at the first page that
// yields pairs. When enrichment is available the raw list is passed through
// it; malformed enrichment output falls back to the raw list.
func (e *FAQExtractor) FAQs(ctx context.Context, baseURL string) []insights.FAQ {
	var faqs []insights.FAQ

	for _, path := range faqPaths {
		url := insights.ResolveURL(baseURL, path)
		body, err := e.fetcher.Fetch(ctx, url)
		if err != nil {
			e.logger.Debug("faq page unavailable", zap.String("url", url), zap.Error(err))
			continue
		}
		doc, err := parseHTML(body)
		if err != nil {
			continue
		}
		faqs = parseFAQPage(doc)
		if len(faqs) > 0 {
			break
		}
	}

	if len(faqs) > 0 && e.enricher != nil {
		structured, err := e.enricher.StructureFAQs(ctx, faqs)
		if err != nil {
			e.logger.Warn("faq enrichment failed, keeping raw list", zap.Error(err))
		} else if len(structured) > 0 {
			faqs = structured
		}
	}

	if len(faqs) > maxFAQs {
		faqs = faqs[:maxFAQs]
	}
	return faqs
}

// parseFAQPage tries structural FAQ containers first, then falls back to
// heading-with-question-mark followed by a sibling paragraph.
func parseFAQPage(doc *goquery.Document) []insights.FAQ {
	var faqs []insights.FAQ

	doc.Find(".faq, .question, .accordion-item, .faq-item").Each(func(_ int, s *goquery.Selection) {
		question := firstText(s, []string{".question", ".faq-question", "h3", "h4", ".title"})
		answer := firstText(s, []string{".answer", ".faq-answer", ".content", "p"})
		if question != "" && answer != "" {
			faqs = append(faqs, insights.FAQ{Question: question, Answer: answer})
		}
	})

	if len(faqs) == 0 {
		doc.Find("h3, h4").Each(func(_ int, s *goquery.Selection) {
			question := strings.TrimSpace(s.Text())
			if !strings.Contains(question, "?") {
				return
			}
			answer := strings.TrimSpace(s.NextAllFiltered("p, div").First().Text())
			if len(answer) > 10 {
				faqs = append(faqs, insights.FAQ{Question: question, Answer: answer})
			}
		})
	}

	return faqs
}
