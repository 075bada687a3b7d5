// Package compare scores brand similarity and runs competitor analysis.
package compare

import (
	"strings"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// Similarity scores two brands in [0,1] by averaging the signals that are
// computable for the pair: Jaccard overlap of lowercased product types,
// social platform count ratio, and catalog size ratio. No computable
// signal means 0.0.
func Similarity(main, competitor insights.BrandInsights) float64 {
	score := 0.0
	factors := 0

	mainTypes := productTypeSet(main.ProductCatalog)
	compTypes := productTypeSet(competitor.ProductCatalog)
	if len(mainTypes) > 0 && len(compTypes) > 0 {
		overlap := 0
		for t := range mainTypes {
			if _, ok := compTypes[t]; ok {
				overlap++
			}
		}
		union := len(mainTypes) + len(compTypes) - overlap
		score += float64(overlap) / float64(union)
		factors++
	}

	mainPlatforms := main.SocialHandles.Count()
	compPlatforms := competitor.SocialHandles.Count()
	if mainPlatforms > 0 && compPlatforms > 0 {
		score += ratio(mainPlatforms, compPlatforms)
		factors++
	}

	if len(main.ProductCatalog) > 0 && len(competitor.ProductCatalog) > 0 {
		score += ratio(len(main.ProductCatalog), len(competitor.ProductCatalog))
		factors++
	}

	if factors == 0 {
		return 0.0
	}
	return score / float64(factors)
}

func productTypeSet(products []insights.Product) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range products {
		if p.ProductType != "" {
			set[strings.ToLower(p.ProductType)] = struct{}{}
		}
	}
	return set
}

func ratio(a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

// Advantages lists what the competitor does better than the main brand,
// capped at five findings.
func Advantages(main, competitor insights.BrandInsights) []string {
	var advantages []string

	if float64(len(competitor.ProductCatalog)) > float64(len(main.ProductCatalog))*1.5 {
		advantages = append(advantages, "Larger product catalog")
	}
	if competitor.SocialHandles.Count() > main.SocialHandles.Count() {
		advantages = append(advantages, "Stronger social media presence")
	}
	if competitor.PolicyCount() > main.PolicyCount() {
		advantages = append(advantages, "More comprehensive policies")
	}
	if float64(len(competitor.FAQs)) > float64(len(main.FAQs))*1.5 {
		advantages = append(advantages, "More comprehensive FAQ section")
	}

	if len(advantages) > 5 {
		advantages = advantages[:5]
	}
	return advantages
}
