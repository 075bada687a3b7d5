package extract

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// minPolicyLength is the minimum body text length for a page to count as a
// real policy document.
const minPolicyLength = 100

var policyPaths = map[insights.PolicyType][]string{
	insights.PolicyPrivacy: {"/pages/privacy-policy", "/privacy-policy", "/privacy"},
	insights.PolicyReturn:  {"/pages/return-policy", "/return-policy", "/returns"},
	insights.PolicyRefund:  {"/pages/refund-policy", "/refund-policy", "/refunds"},
	insights.PolicyTerms:   {"/pages/terms-of-service", "/terms-of-service", "/terms"},
}

var policyContentSelectors = []string{
	".policy-content",
	".page-content",
	".main-content",
	"main",
	".content",
	"article",
}

// PolicyExtractor locates the four storefront policy pages.
type PolicyExtractor struct {
	fetcher insights.Fetcher
	logger  *zap.Logger
}

// NewPolicyExtractor builds a PolicyExtractor.
func NewPolicyExtractor(fetcher insights.Fetcher, logger *zap.Logger) *PolicyExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyExtractor{fetcher: fetcher, logger: logger}
}

// Policies fetches all four categories concurrently. Each category walks
// its candidate paths in order and keeps the first page whose main body
// text reaches the minimum length. Category failures are independent.
func (e *PolicyExtractor) Policies(ctx context.Context, baseURL string) map[insights.PolicyType]*insights.Policy {
	results := make(map[insights.PolicyType]*insights.Policy, len(policyPaths))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, t := range insights.PolicyTypes() {
		wg.Add(1)
		go func(t insights.PolicyType) {
			defer wg.Done()
			if p := e.extractOne(ctx, baseURL, t); p != nil {
				mu.Lock()
				results[t] = p
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	return results
}

func (e *PolicyExtractor) extractOne(ctx context.Context, baseURL string, t insights.PolicyType) *insights.Policy {
	for _, path := range policyPaths[t] {
		url := insights.ResolveURL(baseURL, path)
		body, err := e.fetcher.Fetch(ctx, url)
		if err != nil {
			e.logger.Debug("policy page unavailable",
				zap.String("type", string(t)),
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}

		doc, err := parseHTML(body)
		if err != nil {
			continue
		}
		doc.Find("script, style").Remove()

		content := firstText(doc.Selection, policyContentSelectors)
		if content == "" {
			content = strings.TrimSpace(doc.Text())
		}
		if len(content) > minPolicyLength {
			return &insights.Policy{Content: content, URL: url}
		}
	}
	return nil
}
