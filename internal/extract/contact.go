package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// Result caps keep noisy pages from flooding the record.
const (
	maxEmails = 5
	maxPhones = 3
)

var (
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	emailExactPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern      = regexp.MustCompile(`[+]?[1-9]?[\d\s\-()]{7,15}`)
	phoneDigitsOnly   = regexp.MustCompile(`^\d{7,15}$`)
	phoneSeparators   = regexp.MustCompile(`[\s\-()+]`)
)

// ContactExtractor finds emails and phone numbers in the landing page text,
// then merges additional values from the contact page.
type ContactExtractor struct {
	fetcher insights.Fetcher
	logger  *zap.Logger
}

// NewContactExtractor builds a ContactExtractor.
func NewContactExtractor(fetcher insights.Fetcher, logger *zap.Logger) *ContactExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactExtractor{fetcher: fetcher, logger: logger}
}

// Contact extracts contact channels. The /pages/contact fetch is
// best-effort: values unseen on the landing page are merged in, and the
// caps are re-applied after the merge.
func (e *ContactExtractor) Contact(ctx context.Context, doc *goquery.Document, baseURL string) insights.ContactDetails {
	details := insights.ContactDetails{
		Emails:       findEmails(doc.Text(), nil),
		PhoneNumbers: findPhones(doc.Text(), nil),
	}

	contactURL := insights.ResolveURL(baseURL, "/pages/contact")
	body, err := e.fetcher.Fetch(ctx, contactURL)
	if err != nil {
		e.logger.Debug("contact page unavailable", zap.String("url", contactURL), zap.Error(err))
		return capContacts(details)
	}
	contactDoc, err := parseHTML(body)
	if err != nil {
		return capContacts(details)
	}

	details.Emails = findEmails(contactDoc.Text(), details.Emails)
	details.PhoneNumbers = findPhones(contactDoc.Text(), details.PhoneNumbers)
	return capContacts(details)
}

func findEmails(text string, existing []string) []string {
	out := append([]string{}, existing...)
	for _, m := range emailPattern.FindAllString(text, -1) {
		if validEmail(m) && !containsString(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func findPhones(text string, existing []string) []string {
	out := append([]string{}, existing...)
	for _, m := range phonePattern.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if validPhone(m) && !containsString(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func capContacts(d insights.ContactDetails) insights.ContactDetails {
	if len(d.Emails) > maxEmails {
		d.Emails = d.Emails[:maxEmails]
	}
	if len(d.PhoneNumbers) > maxPhones {
		d.PhoneNumbers = d.PhoneNumbers[:maxPhones]
	}
	return d
}

func validEmail(email string) bool {
	return emailExactPattern.MatchString(email)
}

// validPhone strips common separators and requires 7 to 15 digits.
func validPhone(phone string) bool {
	cleaned := phoneSeparators.ReplaceAllString(phone, "")
	return phoneDigitsOnly.MatchString(cleaned)
}
