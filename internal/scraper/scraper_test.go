package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Jadavivek/deepsolv/internal/hash/sha256"
	"github.com/Jadavivek/deepsolv/internal/insights"
	"github.com/Jadavivek/deepsolv/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type capturingBlobStore struct {
	mu    sync.Mutex
	paths []string
}

func (b *capturingBlobStore) PutObject(_ context.Context, path, _ string, _ []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paths = append(b.paths, path)
	return "mem://" + path, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload)
	return "msg-1", nil
}

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestScraper(f insights.Fetcher) *Scraper {
	return New(Options{
		Fetcher: f,
		Clock:   fixedClock{t: testTime},
	})
}

func TestExtractInsightsLandingFailureIsFatal(t *testing.T) {
	t.Parallel()

	s := newTestScraper(&fakeFetcher{})
	_, err := s.ExtractInsights(context.Background(), "missing.test")
	require.Error(t, err)
	require.ErrorIs(t, err, insights.ErrNotFound)
}

func TestExtractInsightsEmptyRecordWhenAllTasksFail(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://bare.test": `<html><head><title>Bare</title></head><body></body></html>`,
	}}

	s := newTestScraper(f)
	record, err := s.ExtractInsights(context.Background(), "bare.test")
	require.NoError(t, err)

	require.Equal(t, "https://bare.test", record.WebsiteURL)
	require.Equal(t, "Bare", record.BrandName)
	require.Equal(t, testTime, record.ExtractedAt)
	require.NotNil(t, record.ProductCatalog)
	require.NotNil(t, record.HeroProducts)
	require.NotNil(t, record.FAQs)
	require.NotNil(t, record.ContactDetails.Emails)
	require.NotNil(t, record.ContactDetails.PhoneNumbers)
	require.Empty(t, record.ProductCatalog)
	require.Nil(t, record.PrivacyPolicy)
}

func TestExtractInsightsMergesAllTasks(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://shop.test": `<html><head><title>Acme Goods - Official Store</title></head><body>
			<div class="featured-product"><h2>Candle</h2><span class="price">$30</span></div>
			<a href="https://instagram.com/acmegoods">instagram</a>
			<a href="/pages/contact">Contact us</a>
			<p>hello@shop.test</p>
		</body></html>`,
		"https://shop.test/products.json?page=1&limit=250": `{"products":[
			{"id":1,"title":"Candle","handle":"candle",
			 "variants":[{"id":11,"price":"30.00","available":true}]}
		]}`,
		"https://shop.test/products.json?page=2&limit=250": `{"products":[]}`,
	}}

	s := newTestScraper(f)
	record, err := s.ExtractInsights(context.Background(), "shop.test/")
	require.NoError(t, err)

	require.Equal(t, "Acme Goods", record.BrandName)
	require.Len(t, record.ProductCatalog, 1)
	require.Len(t, record.HeroProducts, 1)
	require.Equal(t, "acmegoods", record.SocialHandles.Instagram)
	require.Equal(t, "https://shop.test/pages/contact", record.ImportantLinks.ContactUs)
	require.Contains(t, record.ContactDetails.Emails, "hello@shop.test")
	require.Positive(t, record.DataPointCount())
}

func TestExtractInsightsArchivesSnapshotAndPublishes(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://shop.test": `<html><head><title>Acme</title></head><body></body></html>`,
	}}
	blob := &capturingBlobStore{}
	pub := &capturingPublisher{}

	s := New(Options{
		Fetcher:   f,
		BlobStore: blob,
		Publisher: pub,
		Topic:     "insights-completed",
		Hasher:    sha256.New(),
		Clock:     fixedClock{t: testTime},
	})

	record, err := s.ExtractInsights(context.Background(), "shop.test")
	require.NoError(t, err)
	require.Equal(t, "Acme", record.BrandName)

	require.Len(t, blob.paths, 1)
	require.Regexp(t, `^snapshots/shop\.test/[0-9a-f]{64}\.html$`, blob.paths[0])

	require.Equal(t, []string{"insights-completed"}, pub.topics)
	event, ok := pub.events[0].(CompletedEvent)
	require.True(t, ok)
	require.Equal(t, "https://shop.test", event.WebsiteURL)
	require.Equal(t, "mem://"+blob.paths[0], event.SnapshotURI)
	require.Equal(t, testTime, event.CompletedAt)
}

func TestBrandNameHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		url  string
		want string
	}{
		{
			name: "title suffix stripped",
			html: `<html><head><title>Glow Candles | Handmade</title></head></html>`,
			url:  "https://glow.test",
			want: "Glow Candles",
		},
		{
			name: "logo alt fallback",
			html: `<html><head><title></title></head><body><img alt="Northwind Logo" src="/l.png"></body></html>`,
			url:  "https://northwind.test",
			want: "Northwind Logo",
		},
		{
			name: "og site name fallback",
			html: `<html><head><title></title><meta property="og:site_name" content="Northwind"></head></html>`,
			url:  "https://northwind.test",
			want: "Northwind",
		},
		{
			name: "domain cleanup",
			html: `<html><head></head><body></body></html>`,
			url:  "https://shop.acme-goods.com",
			want: "Acme Goods",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeFetcher{pages: map[string]string{tc.url: tc.html}}
			s := newTestScraper(f)
			record, err := s.ExtractInsights(context.Background(), tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.want, record.BrandName)
		})
	}
}
