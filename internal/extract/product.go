package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// maxCatalogPages is a hard ceiling on products.json pagination.
const maxCatalogPages = 100

var heroSelectors = []string{
	".featured-product",
	".hero-product",
	".product-featured",
	".homepage-product",
	"[data-product-id]",
	".product-card",
	".product-item",
}

var productTitleSelectors = []string{"h1", "h2", "h3", ".product-title", ".title", "[data-product-title]"}

var productPriceSelectors = []string{".price", ".product-price", "[data-price]", ".money"}

// ProductExtractor pulls the catalog from the products.json endpoint and
// hero products from the landing page markup.
type ProductExtractor struct {
	fetcher insights.Fetcher
	logger  *zap.Logger
}

// NewProductExtractor builds a ProductExtractor.
func NewProductExtractor(fetcher insights.Fetcher, logger *zap.Logger) *ProductExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductExtractor{fetcher: fetcher, logger: logger}
}

type catalogPage struct {
	Products []catalogProduct `json:"products"`
}

type catalogProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Handle      string           `json:"handle"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        string           `json:"tags"`
	Images      []catalogImage   `json:"images"`
	Variants    []catalogVariant `json:"variants"`
}

type catalogImage struct {
	Src string `json:"src"`
}

type catalogVariant struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Price          string `json:"price"`
	CompareAtPrice string `json:"compare_at_price"`
	Available      bool   `json:"available"`
	SKU            string `json:"sku"`
}

// Catalog paginates /products.json?page=N&limit=250 until an empty page, a
// fetch failure, or the page ceiling. Partial results survive failures.
func (e *ProductExtractor) Catalog(ctx context.Context, baseURL string) []insights.Product {
	var products []insights.Product

	for page := 1; page <= maxCatalogPages; page++ {
		url := fmt.Sprintf("%s/products.json?page=%d&limit=250", baseURL, page)

		var body catalogPage
		if err := e.fetcher.FetchJSON(ctx, url, &body); err != nil {
			e.logger.Debug("catalog page fetch failed", zap.Int("page", page), zap.Error(err))
			break
		}
		if len(body.Products) == 0 {
			break
		}
		for _, raw := range body.Products {
			products = append(products, parseCatalogProduct(raw, baseURL))
		}
	}

	e.logger.Info("catalog extracted", zap.String("site", baseURL), zap.Int("products", len(products)))
	return products
}

func parseCatalogProduct(raw catalogProduct, baseURL string) insights.Product {
	variants := make([]insights.Variant, 0, len(raw.Variants))
	for _, v := range raw.Variants {
		variants = append(variants, insights.Variant{
			ID:        strconv.FormatInt(v.ID, 10),
			Title:     v.Title,
			Price:     v.Price,
			Available: v.Available,
			SKU:       v.SKU,
		})
	}

	images := make([]string, 0, len(raw.Images))
	for _, img := range raw.Images {
		if img.Src != "" {
			images = append(images, img.Src)
		}
	}

	var tags []string
	if raw.Tags != "" {
		for _, t := range strings.Split(raw.Tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	if tags == nil {
		tags = []string{}
	}

	// Price comes from the first variant; a product with no variants is
	// treated as available.
	var price, compareAt string
	available := true
	if len(raw.Variants) > 0 {
		price = raw.Variants[0].Price
		compareAt = raw.Variants[0].CompareAtPrice
		available = false
		for _, v := range raw.Variants {
			if v.Available {
				available = true
				break
			}
		}
	}

	return insights.Product{
		ID:             strconv.FormatInt(raw.ID, 10),
		Title:          raw.Title,
		Handle:         raw.Handle,
		Description:    raw.BodyHTML,
		Price:          price,
		CompareAtPrice: compareAt,
		Vendor:         raw.Vendor,
		ProductType:    raw.ProductType,
		Tags:           tags,
		Images:         images,
		Variants:       variants,
		Available:      available,
		URL:            insights.ResolveURL(baseURL, "/products/"+raw.Handle),
	}
}

// Hero scans the landing page for featured products. The first selector
// with any matches wins; at most six elements are considered and results
// are deduplicated by exact title.
func (e *ProductExtractor) Hero(doc *goquery.Document, baseURL string) []insights.Product {
	var found []insights.Product

	for _, selector := range heroSelectors {
		elements := doc.Find(selector)
		if elements.Length() == 0 {
			continue
		}
		elements.EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= 6 {
				return false
			}
			if p, ok := parseHeroElement(s, baseURL); ok {
				found = append(found, p)
			}
			return true
		})
		break
	}

	seen := make(map[string]struct{}, len(found))
	unique := make([]insights.Product, 0, len(found))
	for _, p := range found {
		if _, dup := seen[p.Title]; dup {
			continue
		}
		seen[p.Title] = struct{}{}
		unique = append(unique, p)
	}

	e.logger.Info("hero products extracted", zap.Int("count", len(unique)))
	return unique
}

func parseHeroElement(s *goquery.Selection, baseURL string) (insights.Product, bool) {
	title := firstText(s, productTitleSelectors)
	if title == "" {
		return insights.Product{}, false
	}

	price := firstText(s, productPriceSelectors)

	images := []string{}
	if src, ok := s.Find("img").First().Attr("src"); ok && src != "" {
		images = append(images, src)
	}

	var url string
	if href, ok := s.Find("a").First().Attr("href"); ok && href != "" {
		url = insights.ResolveURL(baseURL, href)
	}

	return insights.Product{
		Title:     title,
		Price:     price,
		Tags:      []string{},
		Images:    images,
		Variants:  []insights.Variant{},
		Available: true,
		URL:       url,
	}, true
}
