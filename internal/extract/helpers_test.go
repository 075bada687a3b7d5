package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// fakeFetcher serves canned bodies keyed by URL; anything else is a 404.
// Safe for concurrent use because the policy extractor fans out.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", url, insights.ErrNotFound)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func mustParseDoc(html string) *goquery.Document {
	doc, err := parseHTML([]byte(html))
	if err != nil {
		panic(err)
	}
	return doc
}
