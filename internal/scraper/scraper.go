// Package scraper orchestrates a full storefront extraction run.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Jadavivek/deepsolv/internal/extract"
	"github.com/Jadavivek/deepsolv/internal/insights"
	"github.com/Jadavivek/deepsolv/internal/metrics"
)

var (
	titleSuffixPattern = regexp.MustCompile(`\s*[-|–]\s*.*$`)
	logoAltPattern     = regexp.MustCompile(`(?i)logo`)
	domainPrefixes     = regexp.MustCompile(`^(www\.|shop\.)`)
	domainTLDPattern   = regexp.MustCompile(`\.(com|co\.in|in|org|net).*$`)

	titleCaser = cases.Title(language.English)
)

// Options wires the scraper's collaborators. Enricher, BlobStore and
// Publisher are optional; leaving them nil disables the capability.
type Options struct {
	Fetcher        insights.Fetcher
	Enricher       insights.Enricher
	BlobStore      insights.BlobStore
	Publisher      insights.Publisher
	Topic          string
	SnapshotPrefix string
	Hasher         insights.Hasher
	Clock          insights.Clock
	IDs            insights.IDGenerator
	Logger         *zap.Logger
}

// Scraper fans out the eight extraction tasks and merges their results
// into one canonical record.
type Scraper struct {
	opts Options

	products *extract.ProductExtractor
	policies *extract.PolicyExtractor
	faqs     *extract.FAQExtractor
	social   *extract.SocialExtractor
	contact  *extract.ContactExtractor
	links    *extract.LinkExtractor
	brand    *extract.BrandContextExtractor
}

// CompletedEvent is published after every successful extraction.
type CompletedEvent struct {
	ExtractionID string    `json:"extraction_id,omitempty"`
	WebsiteURL   string    `json:"website_url"`
	BrandName    string    `json:"brand_name,omitempty"`
	DataPoints   int       `json:"data_points"`
	DurationMs   int64     `json:"duration_ms"`
	SnapshotURI  string    `json:"snapshot_uri,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// New builds a Scraper.
func New(opts Options) *Scraper {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SnapshotPrefix == "" {
		opts.SnapshotPrefix = "snapshots"
	}
	logger := opts.Logger

	return &Scraper{
		opts:     opts,
		products: extract.NewProductExtractor(opts.Fetcher, logger.Named("products")),
		policies: extract.NewPolicyExtractor(opts.Fetcher, logger.Named("policies")),
		faqs:     extract.NewFAQExtractor(opts.Fetcher, opts.Enricher, logger.Named("faqs")),
		social:   extract.NewSocialExtractor(),
		contact:  extract.NewContactExtractor(opts.Fetcher, logger.Named("contact")),
		links:    extract.NewLinkExtractor(),
		brand:    extract.NewBrandContextExtractor(opts.Fetcher, opts.Enricher, logger.Named("brandcontext")),
	}
}

// fanoutResults collects the typed outcome of each concurrent task. Each
// goroutine writes only its own field, so the WaitGroup join is the only
// synchronization needed.
type fanoutResults struct {
	catalog      []insights.Product
	hero         []insights.Product
	policyByType map[insights.PolicyType]*insights.Policy
	faqs         []insights.FAQ
	social       insights.SocialHandles
	contact      insights.ContactDetails
	links        insights.ImportantLinks
	brandContext string
}

// ExtractInsights runs the full pipeline for one storefront. The landing
// fetch is the only fatal failure; every downstream task degrades to an
// empty result, so a site where everything else fails still yields a
// record carrying the URL and timestamp.
func (s *Scraper) ExtractInsights(ctx context.Context, websiteURL string) (insights.BrandInsights, error) {
	start := time.Now()

	normalized, err := insights.NormalizeSiteURL(websiteURL)
	if err != nil {
		return insights.BrandInsights{}, fmt.Errorf("normalize url: %w", err)
	}

	logger := s.opts.Logger.With(zap.String("site", normalized))
	logger.Info("starting extraction")

	landing, err := s.opts.Fetcher.Fetch(ctx, normalized)
	if err != nil {
		metrics.ObserveExtraction("failed", time.Since(start), -1)
		return insights.BrandInsights{}, fmt.Errorf("fetch landing page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(landing)))
	if err != nil {
		metrics.ObserveExtraction("failed", time.Since(start), -1)
		return insights.BrandInsights{}, fmt.Errorf("parse landing page: %w", err)
	}

	brandName := brandNameFromDoc(doc, normalized)

	var (
		wg  sync.WaitGroup
		res fanoutResults
	)
	tasks := []func(){
		func() { res.catalog = s.products.Catalog(ctx, normalized) },
		func() { res.hero = s.products.Hero(doc, normalized) },
		func() { res.policyByType = s.policies.Policies(ctx, normalized) },
		func() { res.faqs = s.faqs.FAQs(ctx, normalized) },
		func() { res.social = s.social.Social(doc) },
		func() { res.contact = s.contact.Contact(ctx, doc, normalized) },
		func() { res.links = s.links.Links(doc, normalized) },
		func() { res.brandContext = s.brand.BrandContext(ctx, doc, normalized) },
	}
	wg.Add(len(tasks))
	for _, task := range tasks {
		go func(task func()) {
			defer wg.Done()
			task()
		}(task)
	}
	wg.Wait()

	record := s.merge(normalized, brandName, res)
	elapsed := time.Since(start)
	metrics.ObserveExtraction("success", elapsed, record.DataPointCount())

	snapshotURI := s.archiveSnapshot(ctx, normalized, landing, logger)
	s.publishCompleted(ctx, record, elapsed, snapshotURI, logger)

	logger.Info("extraction complete",
		zap.Int("data_points", record.DataPointCount()),
		zap.Duration("elapsed", elapsed),
	)
	return record, nil
}

func (s *Scraper) merge(normalized, brandName string, res fanoutResults) insights.BrandInsights {
	record := insights.BrandInsights{
		BrandName:      brandName,
		WebsiteURL:     normalized,
		ProductCatalog: res.catalog,
		HeroProducts:   res.hero,
		PrivacyPolicy:  res.policyByType[insights.PolicyPrivacy],
		ReturnPolicy:   res.policyByType[insights.PolicyReturn],
		RefundPolicy:   res.policyByType[insights.PolicyRefund],
		TermsOfService: res.policyByType[insights.PolicyTerms],
		FAQs:           res.faqs,
		SocialHandles:  res.social,
		ContactDetails: res.contact,
		ImportantLinks: res.links,
		BrandContext:   res.brandContext,
		ExtractedAt:    s.now(),
	}

	// Collection fields always marshal as arrays, never null.
	if record.ProductCatalog == nil {
		record.ProductCatalog = []insights.Product{}
	}
	if record.HeroProducts == nil {
		record.HeroProducts = []insights.Product{}
	}
	if record.FAQs == nil {
		record.FAQs = []insights.FAQ{}
	}
	if record.ContactDetails.Emails == nil {
		record.ContactDetails.Emails = []string{}
	}
	if record.ContactDetails.PhoneNumbers == nil {
		record.ContactDetails.PhoneNumbers = []string{}
	}
	return record
}

func (s *Scraper) now() time.Time {
	if s.opts.Clock != nil {
		return s.opts.Clock.Now()
	}
	return time.Now().UTC()
}

// archiveSnapshot stores the raw landing HTML under
// <prefix>/<host>/<sha256>.html. Best-effort: failures are logged only.
func (s *Scraper) archiveSnapshot(ctx context.Context, normalized string, landing []byte, logger *zap.Logger) string {
	if s.opts.BlobStore == nil || s.opts.Hasher == nil {
		return ""
	}
	digest, err := s.opts.Hasher.Hash(landing)
	if err != nil {
		logger.Warn("snapshot hash failed", zap.Error(err))
		return ""
	}
	host := "unknown"
	if u, err := url.Parse(normalized); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	path := fmt.Sprintf("%s/%s/%s.html", s.opts.SnapshotPrefix, host, digest)
	uri, err := s.opts.BlobStore.PutObject(ctx, path, "text/html; charset=utf-8", landing)
	if err != nil {
		logger.Warn("snapshot archive failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return uri
}

// publishCompleted emits the extraction-completed event. Best-effort.
func (s *Scraper) publishCompleted(ctx context.Context, record insights.BrandInsights, elapsed time.Duration, snapshotURI string, logger *zap.Logger) {
	if s.opts.Publisher == nil || s.opts.Topic == "" {
		return
	}
	event := CompletedEvent{
		WebsiteURL:  record.WebsiteURL,
		BrandName:   record.BrandName,
		DataPoints:  record.DataPointCount(),
		DurationMs:  elapsed.Milliseconds(),
		SnapshotURI: snapshotURI,
		CompletedAt: record.ExtractedAt,
	}
	if s.opts.IDs != nil {
		if id, err := s.opts.IDs.NewID(); err == nil {
			event.ExtractionID = id
		}
	}
	if _, err := s.opts.Publisher.Publish(ctx, s.opts.Topic, event); err != nil {
		logger.Warn("completed event publish failed", zap.Error(err))
	}
}

// brandNameFromDoc applies the heuristic chain: page title minus its
// separator suffix, a logo image's alt text, the og:site_name meta tag,
// then a cleaned-up domain name.
func brandNameFromDoc(doc *goquery.Document, normalized string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		name := titleSuffixPattern.ReplaceAllString(title, "")
		if name != "" && len(name) < 100 {
			return name
		}
	}

	var logoAlt string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		alt, ok := s.Attr("alt")
		if ok && logoAltPattern.MatchString(alt) {
			logoAlt = strings.TrimSpace(alt)
			return false
		}
		return true
	})
	if logoAlt != "" {
		return logoAlt
	}

	if content, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
		if name := strings.TrimSpace(content); name != "" {
			return name
		}
	}

	if u, err := url.Parse(normalized); err == nil && u.Host != "" {
		name := domainPrefixes.ReplaceAllString(u.Host, "")
		name = domainTLDPattern.ReplaceAllString(name, "")
		name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
		return titleCaser.String(name)
	}
	return ""
}
