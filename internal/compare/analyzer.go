package compare

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// defaultMaxCompetitors bounds an analysis run.
const defaultMaxCompetitors = 5

// Extractor runs a full extraction for one storefront URL.
type Extractor interface {
	ExtractInsights(ctx context.Context, websiteURL string) (insights.BrandInsights, error)
}

// Competitor is one analyzed competitor.
type Competitor struct {
	Name            string                 `json:"competitor_name,omitempty"`
	WebsiteURL      string                 `json:"website_url"`
	Insights        insights.BrandInsights `json:"insights"`
	SimilarityScore float64                `json:"similarity_score"`
	Advantages      []string               `json:"competitive_advantages"`
}

// Analysis is the full competitor comparison result.
type Analysis struct {
	MainBrand   insights.BrandInsights `json:"main_brand"`
	Competitors []Competitor           `json:"competitors"`
	Summary     string                 `json:"analysis_summary"`
}

// Analyzer extracts and compares competitor storefronts.
type Analyzer struct {
	extractor Extractor
	enricher  insights.Enricher
	logger    *zap.Logger
}

// NewAnalyzer builds an Analyzer. enricher may be nil.
func NewAnalyzer(extractor Extractor, enricher insights.Enricher, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{extractor: extractor, enricher: enricher, logger: logger}
}

// Analyze extracts the main brand, scrapes up to maxCompetitors competitor
// URLs concurrently, scores each against the main brand, and builds a
// summary. Individual competitor failures are absorbed. When no competitor
// URLs are supplied, curated candidates are derived from the main brand's
// context.
func (a *Analyzer) Analyze(ctx context.Context, mainURL string, competitorURLs []string, maxCompetitors int) (Analysis, error) {
	if maxCompetitors <= 0 {
		maxCompetitors = defaultMaxCompetitors
	}

	main, err := a.extractor.ExtractInsights(ctx, mainURL)
	if err != nil {
		return Analysis{}, fmt.Errorf("extract main brand: %w", err)
	}

	candidates := competitorURLs
	if len(candidates) == 0 {
		candidates = discoverCompetitors(main)
	}
	candidates = dropSameDomain(main.WebsiteURL, candidates)
	if len(candidates) > maxCompetitors {
		candidates = candidates[:maxCompetitors]
	}

	results := make([]*Competitor, len(candidates))
	var wg sync.WaitGroup
	wg.Add(len(candidates))
	for i, candidate := range candidates {
		go func(i int, candidate string) {
			defer wg.Done()
			comp, err := a.analyzeOne(ctx, main, candidate)
			if err != nil {
				a.logger.Warn("competitor analysis failed",
					zap.String("url", candidate),
					zap.Error(err),
				)
				return
			}
			results[i] = comp
		}(i, candidate)
	}
	wg.Wait()

	competitors := make([]Competitor, 0, len(results))
	for _, r := range results {
		if r != nil {
			competitors = append(competitors, *r)
		}
	}

	summary := a.enrichedSummary(ctx, main, competitors)
	if summary == "" {
		summary = BasicSummary(main, competitors)
	}

	return Analysis{MainBrand: main, Competitors: competitors, Summary: summary}, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, main insights.BrandInsights, competitorURL string) (*Competitor, error) {
	ins, err := a.extractor.ExtractInsights(ctx, competitorURL)
	if err != nil {
		return nil, err
	}
	advantages := Advantages(main, ins)
	if advantages == nil {
		advantages = []string{}
	}
	return &Competitor{
		Name:            ins.BrandName,
		WebsiteURL:      competitorURL,
		Insights:        ins,
		SimilarityScore: Similarity(main, ins),
		Advantages:      advantages,
	}, nil
}

// enrichedSummary asks the enrichment backend for an analysis summary and
// per-competitor advantages. Returns "" when unavailable or failing.
func (a *Analyzer) enrichedSummary(ctx context.Context, main insights.BrandInsights, competitors []Competitor) string {
	if a.enricher == nil || len(competitors) == 0 {
		return ""
	}
	all := make([]insights.BrandInsights, len(competitors))
	for i, c := range competitors {
		all[i] = c.Insights
	}
	findings, err := a.enricher.AnalyzeCompetitors(ctx, main, all)
	if err != nil {
		a.logger.Warn("competitor enrichment failed, using basic summary", zap.Error(err))
		return ""
	}
	for i := range competitors {
		if i < len(findings.Advantages) {
			competitors[i].Advantages = findings.Advantages[i : i+1]
		}
	}
	return findings.Summary
}

// BasicSummary builds the fallback analysis summary string.
func BasicSummary(main insights.BrandInsights, competitors []Competitor) string {
	brandName := main.BrandName
	if brandName == "" {
		brandName = "the brand"
	}
	if len(competitors) == 0 {
		return fmt.Sprintf("No competitors found for analysis of %s.", brandName)
	}

	total := 0.0
	top := competitors[0]
	for _, c := range competitors {
		total += c.SimilarityScore
		if c.SimilarityScore > top.SimilarityScore {
			top = c
		}
	}
	avg := total / float64(len(competitors))

	topName := top.Name
	if topName == "" {
		topName = "Unknown"
	}
	return fmt.Sprintf(
		"Analyzed %d competitors for %s. Average similarity score: %.2f. Most similar competitor: %s with similarity score of %.2f.",
		len(competitors), brandName, avg, topName, top.SimilarityScore,
	)
}

// Curated fallback candidates used when the caller supplies no competitor
// URLs. Industry lists are keyed by keywords in the brand context.
var (
	sampleStores = []string{
		"https://colourpop.com",
		"https://gymshark.com",
		"https://allbirds.com",
		"https://warbyparker.com",
		"https://casper.com",
	}

	industryStores = []struct {
		keyword string
		stores  []string
	}{
		{"fashion", []string{"https://fashionnova.com", "https://prettylittlething.com"}},
		{"beauty", []string{"https://glossier.com", "https://rarebeauty.com"}},
		{"fitness", []string{"https://lululemon.com", "https://alo.com"}},
	}
)

func discoverCompetitors(main insights.BrandInsights) []string {
	var candidates []string
	if main.BrandContext != "" {
		lower := strings.ToLower(main.BrandContext)
		for _, industry := range industryStores {
			if strings.Contains(lower, industry.keyword) {
				candidates = append(candidates, industry.stores...)
				break
			}
		}
	}
	candidates = append(candidates, sampleStores...)
	return candidates
}

func dropSameDomain(mainURL string, candidates []string) []string {
	mainHost := ""
	if u, err := url.Parse(mainURL); err == nil {
		mainHost = u.Host
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !strings.HasPrefix(c, "http://") && !strings.HasPrefix(c, "https://") {
			c = "https://" + c
		}
		if u, err := url.Parse(c); err != nil || u.Host == "" || u.Host == mainHost {
			continue
		}
		out = append(out, c)
	}
	return out
}
