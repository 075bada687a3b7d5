// Package extract implements the heuristic storefront parsers. Every
// extractor degrades to an empty result on internal failure; errors never
// propagate past this package.
package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(data []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(data))
}

// firstText walks an ordered selector chain and returns the trimmed text of
// the first selector that matches anything inside s.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			return strings.TrimSpace(found.Text())
		}
	}
	return ""
}

// truncateRunes caps text at n runes.
func truncateRunes(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
