// Package memory provides an in-memory insight store for development and
// tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// InsightStore keeps records and logs in process memory.
type InsightStore struct {
	mu      sync.RWMutex
	nextID  int64
	byURL   map[string]storedBrand
	logs    []insights.ExtractionLog
	nextLog int64
}

type storedBrand struct {
	id     int64
	record insights.BrandInsights
}

// NewInsightStore creates an empty store.
func NewInsightStore() *InsightStore {
	return &InsightStore{byURL: make(map[string]storedBrand)}
}

// SaveInsights upserts by website URL.
func (s *InsightStore) SaveInsights(_ context.Context, ins insights.BrandInsights) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byURL[ins.WebsiteURL]
	if ok {
		existing.record = ins
		s.byURL[ins.WebsiteURL] = existing
		return existing.id, nil
	}
	s.nextID++
	s.byURL[ins.WebsiteURL] = storedBrand{id: s.nextID, record: ins}
	return s.nextID, nil
}

// GetRecentInsights returns a record no older than the window, or nil.
func (s *InsightStore) GetRecentInsights(_ context.Context, websiteURL string, window time.Duration) (*insights.BrandInsights, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byURL[websiteURL]
	if !ok {
		return nil, nil
	}
	if time.Since(stored.record.ExtractedAt) > window {
		return nil, nil
	}
	record := stored.record
	return &record, nil
}

// LogExtraction appends one extraction-attempt record.
func (s *InsightStore) LogExtraction(_ context.Context, entry insights.ExtractionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLog++
	entry.ID = s.nextLog
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, entry)
	return nil
}

// History lists recent extraction-log entries for a URL, newest first.
func (s *InsightStore) History(_ context.Context, websiteURL string, limit int) ([]insights.ExtractionLog, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []insights.ExtractionLog{}
	for _, entry := range s.logs {
		if entry.WebsiteURL == websiteURL {
			matches = append(matches, entry)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Stats summarizes the extraction log and stored brands.
func (s *InsightStore) Stats(_ context.Context) (insights.ExtractionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st insights.ExtractionStats
	var successSeconds float64
	for _, entry := range s.logs {
		st.TotalExtractions++
		switch entry.Status {
		case insights.ExtractionSucceeded:
			st.SuccessfulExtractions++
			successSeconds += entry.Elapsed.Seconds()
		case insights.ExtractionFailed:
			st.FailedExtractions++
		}
	}
	if st.TotalExtractions > 0 {
		st.SuccessRate = float64(st.SuccessfulExtractions) / float64(st.TotalExtractions) * 100
	}
	if st.SuccessfulExtractions > 0 {
		st.AverageElapsedSeconds = successSeconds / float64(st.SuccessfulExtractions)
	}
	st.TotalBrands = int64(len(s.byURL))
	for _, stored := range s.byURL {
		st.TotalProducts += int64(len(stored.record.ProductCatalog))
	}
	return st, nil
}

// Delete removes a brand; reports whether it existed. Logs are kept.
func (s *InsightStore) Delete(_ context.Context, websiteURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byURL[websiteURL]; !ok {
		return false, nil
	}
	delete(s.byURL, websiteURL)
	return true, nil
}

// Close is a no-op for the in-memory store.
func (s *InsightStore) Close() {}
