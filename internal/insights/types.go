// Package insights defines core types shared across subsystems.
package insights

import "time"

// Variant is a purchasable variation of a product. Prices stay opaque
// decimal strings; no currency parsing happens anywhere in the pipeline.
type Variant struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	Price     string `json:"price,omitempty"`
	Available bool   `json:"available"`
	SKU       string `json:"sku,omitempty"`
}

// Product is a single catalog or hero item. It is constructed once during
// parsing and never mutated afterwards; fields that could not be determined
// are left empty rather than guessed.
type Product struct {
	ID             string    `json:"id,omitempty"`
	Title          string    `json:"title"`
	Handle         string    `json:"handle,omitempty"`
	Description    string    `json:"description,omitempty"`
	Price          string    `json:"price,omitempty"`
	CompareAtPrice string    `json:"compare_at_price,omitempty"`
	Vendor         string    `json:"vendor,omitempty"`
	ProductType    string    `json:"product_type,omitempty"`
	Tags           []string  `json:"tags"`
	Images         []string  `json:"images"`
	Variants       []Variant `json:"variants"`
	Available      bool      `json:"available"`
	URL            string    `json:"url,omitempty"`
}

// FAQ is one question/answer pair; position is the list index.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// PolicyType enumerates the policy categories a storefront publishes.
type PolicyType string

// Policy categories extracted per site.
const (
	PolicyPrivacy PolicyType = "privacy"
	PolicyReturn  PolicyType = "return"
	PolicyRefund  PolicyType = "refund"
	PolicyTerms   PolicyType = "terms"
)

// PolicyTypes lists all categories in a fixed order.
func PolicyTypes() []PolicyType {
	return []PolicyType{PolicyPrivacy, PolicyReturn, PolicyRefund, PolicyTerms}
}

// Policy holds the text of one storefront policy page.
type Policy struct {
	Content     string `json:"content"`
	URL         string `json:"url,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// SocialHandles maps each supported platform to an optional handle.
// Empty string means the platform was not found.
type SocialHandles struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Pinterest string `json:"pinterest,omitempty"`
}

// Count returns how many platforms have a handle set.
func (s SocialHandles) Count() int {
	n := 0
	for _, v := range []string{s.Instagram, s.Facebook, s.Twitter, s.TikTok, s.YouTube, s.LinkedIn, s.Pinterest} {
		if v != "" {
			n++
		}
	}
	return n
}

// ContactDetails aggregates contact channels found on the site.
type ContactDetails struct {
	Emails       []string `json:"emails"`
	PhoneNumbers []string `json:"phone_numbers"`
	Address      string   `json:"address,omitempty"`
	SupportHours string   `json:"support_hours,omitempty"`
}

// ImportantLinks maps each fixed link category to an optional URL.
type ImportantLinks struct {
	OrderTracking string `json:"order_tracking,omitempty"`
	ContactUs     string `json:"contact_us,omitempty"`
	Blogs         string `json:"blogs,omitempty"`
	SizeGuide     string `json:"size_guide,omitempty"`
	ShippingInfo  string `json:"shipping_info,omitempty"`
	Careers       string `json:"careers,omitempty"`
	AboutUs       string `json:"about_us,omitempty"`
}

// Count returns how many link categories are populated.
func (l ImportantLinks) Count() int {
	n := 0
	for _, v := range []string{l.OrderTracking, l.ContactUs, l.Blogs, l.SizeGuide, l.ShippingInfo, l.Careers, l.AboutUs} {
		if v != "" {
			n++
		}
	}
	return n
}

// BrandInsights is the canonical record produced by one extraction run.
// The scraper owns it during assembly; once returned it is treated as an
// immutable value by persistence and comparison code.
type BrandInsights struct {
	BrandName      string         `json:"brand_name,omitempty"`
	WebsiteURL     string         `json:"website_url"`
	ProductCatalog []Product      `json:"product_catalog"`
	HeroProducts   []Product      `json:"hero_products"`
	PrivacyPolicy  *Policy        `json:"privacy_policy,omitempty"`
	ReturnPolicy   *Policy        `json:"return_policy,omitempty"`
	RefundPolicy   *Policy        `json:"refund_policy,omitempty"`
	TermsOfService *Policy        `json:"terms_of_service,omitempty"`
	FAQs           []FAQ          `json:"faqs"`
	SocialHandles  SocialHandles  `json:"social_handles"`
	ContactDetails ContactDetails `json:"contact_details"`
	ImportantLinks ImportantLinks `json:"important_links"`
	BrandContext   string         `json:"brand_context,omitempty"`
	ExtractedAt    time.Time      `json:"extraction_timestamp"`
}

// Policy returns the policy for the given category, or nil.
func (b BrandInsights) Policy(t PolicyType) *Policy {
	switch t {
	case PolicyPrivacy:
		return b.PrivacyPolicy
	case PolicyReturn:
		return b.ReturnPolicy
	case PolicyRefund:
		return b.RefundPolicy
	case PolicyTerms:
		return b.TermsOfService
	}
	return nil
}

// PolicyCount returns how many of the four policies are present.
func (b BrandInsights) PolicyCount() int {
	n := 0
	for _, t := range PolicyTypes() {
		if b.Policy(t) != nil {
			n++
		}
	}
	return n
}

// DataPointCount is a rough measure of how much the extraction yielded,
// recorded alongside each extraction-log entry.
func (b BrandInsights) DataPointCount() int {
	count := 0
	if b.BrandName != "" {
		count++
	}
	count += len(b.ProductCatalog)
	count += len(b.HeroProducts)
	count += b.PolicyCount()
	count += len(b.FAQs)
	count += b.SocialHandles.Count()
	count += len(b.ContactDetails.Emails)
	count += len(b.ContactDetails.PhoneNumbers)
	if b.ContactDetails.Address != "" {
		count++
	}
	if b.ContactDetails.SupportHours != "" {
		count++
	}
	count += b.ImportantLinks.Count()
	if b.BrandContext != "" {
		count++
	}
	return count
}

// ExtractionStatus records the outcome of one extraction attempt.
type ExtractionStatus string

// Extraction log status values.
const (
	ExtractionSucceeded ExtractionStatus = "success"
	ExtractionFailed    ExtractionStatus = "failed"
)

// ExtractionLog is one append-only record of an extraction attempt.
type ExtractionLog struct {
	ID         int64            `json:"id,omitempty"`
	WebsiteURL string           `json:"website_url"`
	Status     ExtractionStatus `json:"status"`
	ErrorText  string           `json:"error_text,omitempty"`
	Elapsed    time.Duration    `json:"elapsed"`
	DataPoints int              `json:"data_points"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ExtractionStats summarizes the extraction log.
type ExtractionStats struct {
	TotalExtractions      int64   `json:"total_extractions"`
	SuccessfulExtractions int64   `json:"successful_extractions"`
	FailedExtractions     int64   `json:"failed_extractions"`
	SuccessRate           float64 `json:"success_rate"`
	AverageElapsedSeconds float64 `json:"average_extraction_time_seconds"`
	TotalBrands           int64   `json:"total_brands_analyzed"`
	TotalProducts         int64   `json:"total_products_extracted"`
}

// CompetitorFindings is what an enrichment backend returns for a
// competitive analysis request.
type CompetitorFindings struct {
	Summary    string   `json:"summary"`
	Advantages []string `json:"advantages"`
}
