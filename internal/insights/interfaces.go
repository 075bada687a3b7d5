package insights

import (
	"context"
	"time"
)

// Fetcher retrieves remote content with retry and backoff. Implementations
// return ErrNotFound for a definitive 404 and a wrapped transient error once
// retries are exhausted.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchJSON(ctx context.Context, url string, v any) error
}

// Enricher is the optional LLM-backed text processing capability. Callers
// hold a nil Enricher when the capability is absent and must check before
// invoking; every method failure is non-fatal and callers fall back to the
// pre-enrichment value.
type Enricher interface {
	SummarizeText(ctx context.Context, text string) (string, error)
	StructureFAQs(ctx context.Context, faqs []FAQ) ([]FAQ, error)
	AnalyzeCompetitors(ctx context.Context, main BrandInsights, competitors []BrandInsights) (CompetitorFindings, error)
}

// InsightStore persists canonical records and the extraction-attempt log.
type InsightStore interface {
	// SaveInsights upserts by website URL, replacing all child collections.
	SaveInsights(ctx context.Context, ins BrandInsights) (int64, error)
	// GetRecentInsights returns a record no older than the window, or nil.
	GetRecentInsights(ctx context.Context, websiteURL string, window time.Duration) (*BrandInsights, error)
	LogExtraction(ctx context.Context, entry ExtractionLog) error
	History(ctx context.Context, websiteURL string, limit int) ([]ExtractionLog, error)
	Stats(ctx context.Context) (ExtractionStats, error)
	Delete(ctx context.Context, websiteURL string) (bool, error)
	Close()
}

// BlobStore writes raw artifacts (landing-page snapshots) and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes extraction-completed events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for snapshot paths.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces request/extraction IDs.
type IDGenerator interface {
	NewID() (string, error)
}
