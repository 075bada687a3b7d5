// Package postgres provides the Postgres-backed insight store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// PGXPool is the subset of pgxpool.Pool the store uses. pgxmock's pool
// satisfies it too.
type PGXPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// InsightStore persists canonical records and the extraction log.
type InsightStore struct {
	pool PGXPool
}

// NewInsightStore connects a pool using the provided config.
func NewInsightStore(ctx context.Context, cfg Config) (*InsightStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &InsightStore{pool: pool}, nil
}

// NewInsightStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewInsightStoreWithPool(pool PGXPool) (*InsightStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &InsightStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *InsightStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS brands (
	id BIGSERIAL PRIMARY KEY,
	website_url TEXT NOT NULL UNIQUE,
	brand_name TEXT,
	brand_context TEXT,
	social_handles JSONB NOT NULL DEFAULT '{}',
	contact_details JSONB NOT NULL DEFAULT '{}',
	important_links JSONB NOT NULL DEFAULT '{}',
	policies JSONB NOT NULL DEFAULT '{}',
	extracted_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	brand_id BIGINT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	shopify_id TEXT,
	title TEXT NOT NULL,
	handle TEXT,
	description TEXT,
	price TEXT,
	compare_at_price TEXT,
	vendor TEXT,
	product_type TEXT,
	tags JSONB NOT NULL DEFAULT '[]',
	images JSONB NOT NULL DEFAULT '[]',
	variants JSONB NOT NULL DEFAULT '[]',
	available BOOLEAN NOT NULL DEFAULT TRUE,
	url TEXT
);
CREATE TABLE IF NOT EXISTS hero_products (
	id BIGSERIAL PRIMARY KEY,
	brand_id BIGINT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	price TEXT,
	images JSONB NOT NULL DEFAULT '[]',
	url TEXT,
	position INT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS faqs (
	id BIGSERIAL PRIMARY KEY,
	brand_id BIGINT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	category TEXT,
	position INT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS extraction_logs (
	id BIGSERIAL PRIMARY KEY,
	website_url TEXT NOT NULL,
	status TEXT NOT NULL,
	error_text TEXT,
	extraction_time_seconds DOUBLE PRECISION,
	data_points INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_extraction_logs_url ON extraction_logs (website_url, created_at DESC);
`

// EnsureSchema creates the tables when missing.
func (s *InsightStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// policyDoc is the JSONB shape of the four optional policies.
type policyDoc struct {
	Privacy *insights.Policy `json:"privacy,omitempty"`
	Return  *insights.Policy `json:"return,omitempty"`
	Refund  *insights.Policy `json:"refund,omitempty"`
	Terms   *insights.Policy `json:"terms,omitempty"`
}

// SaveInsights upserts by website URL and replaces every child collection
// inside a single transaction. Returns the brand row id.
func (s *InsightStore) SaveInsights(ctx context.Context, ins insights.BrandInsights) (int64, error) {
	social, err := json.Marshal(ins.SocialHandles)
	if err != nil {
		return 0, fmt.Errorf("marshal social handles: %w", err)
	}
	contact, err := json.Marshal(ins.ContactDetails)
	if err != nil {
		return 0, fmt.Errorf("marshal contact details: %w", err)
	}
	links, err := json.Marshal(ins.ImportantLinks)
	if err != nil {
		return 0, fmt.Errorf("marshal important links: %w", err)
	}
	policies, err := json.Marshal(policyDoc{
		Privacy: ins.PrivacyPolicy,
		Return:  ins.ReturnPolicy,
		Refund:  ins.RefundPolicy,
		Terms:   ins.TermsOfService,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal policies: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var brandID int64
	err = tx.QueryRow(ctx, `
INSERT INTO brands (website_url, brand_name, brand_context, social_handles, contact_details, important_links, policies, extracted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (website_url) DO UPDATE SET
	brand_name = EXCLUDED.brand_name,
	brand_context = EXCLUDED.brand_context,
	social_handles = EXCLUDED.social_handles,
	contact_details = EXCLUDED.contact_details,
	important_links = EXCLUDED.important_links,
	policies = EXCLUDED.policies,
	extracted_at = EXCLUDED.extracted_at,
	updated_at = now()
RETURNING id`,
		ins.WebsiteURL, ins.BrandName, ins.BrandContext, social, contact, links, policies, ins.ExtractedAt,
	).Scan(&brandID)
	if err != nil {
		return 0, fmt.Errorf("upsert brand: %w", err)
	}

	for _, table := range []string{"products", "hero_products", "faqs"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE brand_id = $1", table), brandID); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range ins.ProductCatalog {
		tags, images, variants, err := marshalProductJSON(p)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO products (brand_id, shopify_id, title, handle, description, price, compare_at_price, vendor, product_type, tags, images, variants, available, url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			brandID, p.ID, p.Title, p.Handle, p.Description, p.Price, p.CompareAtPrice,
			p.Vendor, p.ProductType, tags, images, variants, p.Available, p.URL,
		); err != nil {
			return 0, fmt.Errorf("insert product: %w", err)
		}
	}

	for i, p := range ins.HeroProducts {
		images, err := json.Marshal(p.Images)
		if err != nil {
			return 0, fmt.Errorf("marshal hero images: %w", err)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO hero_products (brand_id, title, price, images, url, position)
VALUES ($1, $2, $3, $4, $5, $6)`,
			brandID, p.Title, p.Price, images, p.URL, i,
		); err != nil {
			return 0, fmt.Errorf("insert hero product: %w", err)
		}
	}

	for i, f := range ins.FAQs {
		if _, err := tx.Exec(ctx, `
INSERT INTO faqs (brand_id, question, answer, category, position)
VALUES ($1, $2, $3, $4, $5)`,
			brandID, f.Question, f.Answer, f.Category, i,
		); err != nil {
			return 0, fmt.Errorf("insert faq: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return brandID, nil
}

// GetRecentInsights returns a record no older than the window, or nil.
func (s *InsightStore) GetRecentInsights(ctx context.Context, websiteURL string, window time.Duration) (*insights.BrandInsights, error) {
	cutoff := time.Now().UTC().Add(-window)

	var (
		brandID                        int64
		record                         insights.BrandInsights
		social, contact, links, polDoc []byte
	)
	record.WebsiteURL = websiteURL

	err := s.pool.QueryRow(ctx, `
SELECT id, brand_name, brand_context, social_handles, contact_details, important_links, policies, extracted_at
FROM brands
WHERE website_url = $1 AND extracted_at >= $2`,
		websiteURL, cutoff,
	).Scan(&brandID, &record.BrandName, &record.BrandContext, &social, &contact, &links, &polDoc, &record.ExtractedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select brand: %w", err)
	}

	if err := json.Unmarshal(social, &record.SocialHandles); err != nil {
		return nil, fmt.Errorf("decode social handles: %w", err)
	}
	if err := json.Unmarshal(contact, &record.ContactDetails); err != nil {
		return nil, fmt.Errorf("decode contact details: %w", err)
	}
	if err := json.Unmarshal(links, &record.ImportantLinks); err != nil {
		return nil, fmt.Errorf("decode important links: %w", err)
	}
	var doc policyDoc
	if err := json.Unmarshal(polDoc, &doc); err != nil {
		return nil, fmt.Errorf("decode policies: %w", err)
	}
	record.PrivacyPolicy = doc.Privacy
	record.ReturnPolicy = doc.Return
	record.RefundPolicy = doc.Refund
	record.TermsOfService = doc.Terms

	if record.ProductCatalog, err = s.loadProducts(ctx, brandID); err != nil {
		return nil, err
	}
	if record.HeroProducts, err = s.loadHeroProducts(ctx, brandID); err != nil {
		return nil, err
	}
	if record.FAQs, err = s.loadFAQs(ctx, brandID); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *InsightStore) loadProducts(ctx context.Context, brandID int64) ([]insights.Product, error) {
	rows, err := s.pool.Query(ctx, `
SELECT shopify_id, title, handle, description, price, compare_at_price, vendor, product_type, tags, images, variants, available, url
FROM products WHERE brand_id = $1 ORDER BY id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := []insights.Product{}
	for rows.Next() {
		var (
			p                      insights.Product
			tags, images, variants []byte
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Handle, &p.Description, &p.Price, &p.CompareAtPrice,
			&p.Vendor, &p.ProductType, &tags, &images, &variants, &p.Available, &p.URL); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if err := unmarshalProductJSON(&p, tags, images, variants); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (s *InsightStore) loadHeroProducts(ctx context.Context, brandID int64) ([]insights.Product, error) {
	rows, err := s.pool.Query(ctx, `
SELECT title, price, images, url FROM hero_products WHERE brand_id = $1 ORDER BY position`, brandID)
	if err != nil {
		return nil, fmt.Errorf("select hero products: %w", err)
	}
	defer rows.Close()

	products := []insights.Product{}
	for rows.Next() {
		var (
			p      insights.Product
			images []byte
		)
		if err := rows.Scan(&p.Title, &p.Price, &images, &p.URL); err != nil {
			return nil, fmt.Errorf("scan hero product: %w", err)
		}
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode hero images: %w", err)
		}
		p.Tags = []string{}
		p.Variants = []insights.Variant{}
		p.Available = true
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hero products: %w", err)
	}
	return products, nil
}

func (s *InsightStore) loadFAQs(ctx context.Context, brandID int64) ([]insights.FAQ, error) {
	rows, err := s.pool.Query(ctx, `
SELECT question, answer, category FROM faqs WHERE brand_id = $1 ORDER BY position`, brandID)
	if err != nil {
		return nil, fmt.Errorf("select faqs: %w", err)
	}
	defer rows.Close()

	faqs := []insights.FAQ{}
	for rows.Next() {
		var f insights.FAQ
		if err := rows.Scan(&f.Question, &f.Answer, &f.Category); err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		faqs = append(faqs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faqs: %w", err)
	}
	return faqs, nil
}

// LogExtraction appends one extraction-attempt record.
func (s *InsightStore) LogExtraction(ctx context.Context, entry insights.ExtractionLog) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := s.pool.Exec(ctx, `
INSERT INTO extraction_logs (website_url, status, error_text, extraction_time_seconds, data_points, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.WebsiteURL, string(entry.Status), entry.ErrorText, entry.Elapsed.Seconds(), entry.DataPoints, createdAt,
	); err != nil {
		return fmt.Errorf("insert extraction log: %w", err)
	}
	return nil
}

// History lists recent extraction-log entries for a URL, newest first.
func (s *InsightStore) History(ctx context.Context, websiteURL string, limit int) ([]insights.ExtractionLog, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, website_url, status, error_text, extraction_time_seconds, data_points, created_at
FROM extraction_logs
WHERE website_url = $1
ORDER BY created_at DESC
LIMIT $2`, websiteURL, limit)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer rows.Close()

	logs := []insights.ExtractionLog{}
	for rows.Next() {
		var (
			entry   insights.ExtractionLog
			status  string
			seconds float64
		)
		if err := rows.Scan(&entry.ID, &entry.WebsiteURL, &status, &entry.ErrorText, &seconds, &entry.DataPoints, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.Status = insights.ExtractionStatus(status)
		entry.Elapsed = time.Duration(seconds * float64(time.Second))
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return logs, nil
}

// Stats summarizes the extraction log and stored brands.
func (s *InsightStore) Stats(ctx context.Context) (insights.ExtractionStats, error) {
	var st insights.ExtractionStats
	err := s.pool.QueryRow(ctx, `
SELECT
	(SELECT count(*) FROM extraction_logs),
	(SELECT count(*) FROM extraction_logs WHERE status = 'success'),
	(SELECT count(*) FROM extraction_logs WHERE status = 'failed'),
	(SELECT coalesce(avg(extraction_time_seconds), 0) FROM extraction_logs WHERE status = 'success'),
	(SELECT count(*) FROM brands),
	(SELECT count(*) FROM products)`,
	).Scan(&st.TotalExtractions, &st.SuccessfulExtractions, &st.FailedExtractions,
		&st.AverageElapsedSeconds, &st.TotalBrands, &st.TotalProducts)
	if err != nil {
		return insights.ExtractionStats{}, fmt.Errorf("select stats: %w", err)
	}
	if st.TotalExtractions > 0 {
		st.SuccessRate = float64(st.SuccessfulExtractions) / float64(st.TotalExtractions) * 100
	}
	return st, nil
}

// Delete removes a brand and its children; reports whether a row existed.
// Extraction logs are append-only and survive the delete.
func (s *InsightStore) Delete(ctx context.Context, websiteURL string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM brands WHERE website_url = $1`, websiteURL)
	if err != nil {
		return false, fmt.Errorf("delete brand: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func marshalProductJSON(p insights.Product) (tags, images, variants []byte, err error) {
	if tags, err = json.Marshal(p.Tags); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	if images, err = json.Marshal(p.Images); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	if variants, err = json.Marshal(p.Variants); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal variants: %w", err)
	}
	return tags, images, variants, nil
}

func unmarshalProductJSON(p *insights.Product, tags, images, variants []byte) error {
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return fmt.Errorf("decode images: %w", err)
	}
	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return fmt.Errorf("decode variants: %w", err)
	}
	return nil
}
