package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

func TestFAQsStructuredContainers(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://shop.test/pages/faq": `<html><body>
			<div class="faq-item">
				<h3 class="faq-question">Do you ship internationally?</h3>
				<div class="faq-answer">Yes, to over 40 countries.</div>
			</div>
			<div class="faq-item">
				<h3 class="faq-question">How long is delivery?</h3>
				<div class="faq-answer">Usually 3 to 5 business days.</div>
			</div>
		</body></html>`,
	}}

	e := NewFAQExtractor(f, nil, nil)
	faqs := e.FAQs(context.Background(), "https://shop.test")

	require.Len(t, faqs, 2)
	require.Equal(t, "Do you ship internationally?", faqs[0].Question)
	require.Equal(t, "Yes, to over 40 countries.", faqs[0].Answer)
}

func TestFAQsHeadingFallback(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://shop.test/pages/faq": `<html><body>
			<h3>Can I return an item?</h3>
			<p>Absolutely, within 30 days of purchase.</p>
			<h3>Not a question heading</h3>
			<p>This pair should be skipped entirely.</p>
			<h4>Where are you based?</h4>
			<p>short</p>
		</body></html>`,
	}}

	e := NewFAQExtractor(f, nil, nil)
	faqs := e.FAQs(context.Background(), "https://shop.test")

	// Only the heading with a question mark and a long-enough answer counts.
	require.Len(t, faqs, 1)
	require.Equal(t, "Can I return an item?", faqs[0].Question)
}

func TestFAQsStopsAtFirstPageWithResults(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://shop.test/faq": `<html><body>
			<div class="faq-item"><h3>Q?</h3><p>A real answer here.</p></div>
		</body></html>`,
		"https://shop.test/help": `<html><body>
			<div class="faq-item"><h3>Other?</h3><p>Should never be reached.</p></div>
		</body></html>`,
	}}

	e := NewFAQExtractor(f, nil, nil)
	faqs := e.FAQs(context.Background(), "https://shop.test")

	require.Len(t, faqs, 1)
	require.Equal(t, "Q?", faqs[0].Question)
	require.NotContains(t, f.calls, "https://shop.test/help")
}

func TestFAQsCappedAtTwenty(t *testing.T) {
	t.Parallel()

	html := "<html><body>"
	for i := 0; i < 30; i++ {
		html += fmt.Sprintf(`<div class="faq-item"><h3>Question %d?</h3><p>Answer number %d.</p></div>`, i, i)
	}
	html += "</body></html>"

	f := &fakeFetcher{pages: map[string]string{"https://shop.test/pages/faq": html}}
	e := NewFAQExtractor(f, nil, nil)
	faqs := e.FAQs(context.Background(), "https://shop.test")

	require.Len(t, faqs, 20)
}

type stubEnricher struct {
	faqs    []insights.FAQ
	faqsErr error
}

func (s *stubEnricher) SummarizeText(context.Context, string) (string, error) {
	return "", errors.New("unused")
}

func (s *stubEnricher) StructureFAQs(context.Context, []insights.FAQ) ([]insights.FAQ, error) {
	return s.faqs, s.faqsErr
}

func (s *stubEnricher) AnalyzeCompetitors(context.Context, insights.BrandInsights, []insights.BrandInsights) (insights.CompetitorFindings, error) {
	return insights.CompetitorFindings{}, errors.New("unused")
}

func TestFAQsEnrichmentFailureFallsBackToRawList(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://shop.test/pages/faq": `<html><body>
			<div class="faq-item"><h3>Q?</h3><p>A raw answer text.</p></div>
		</body></html>`,
	}}

	e := NewFAQExtractor(f, &stubEnricher{faqsErr: errors.New("llm down")}, nil)
	faqs := e.FAQs(context.Background(), "https://shop.test")

	require.Len(t, faqs, 1)
	require.Equal(t, "A raw answer text.", faqs[0].Answer)
}

func TestFAQsEnrichmentReplacesList(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://shop.test/pages/faq": `<html><body>
			<div class="faq-item"><h3>Q?</h3><p>A raw answer text.</p></div>
		</body></html>`,
	}}

	structured := []insights.FAQ{{Question: "Q?", Answer: "Cleaned up.", Category: "shipping"}}
	e := NewFAQExtractor(f, &stubEnricher{faqs: structured}, nil)
	faqs := e.FAQs(context.Background(), "https://shop.test")

	require.Equal(t, structured, faqs)
}
