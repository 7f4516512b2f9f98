package crawler

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Paper represents one scraped paper listing entry
type Paper struct {
	Title     string    `json:"title"`
	Authors   string    `json:"authors"`
	Abstract  string    `json:"abstract"`
	Link      string    `json:"link"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// scrapedAtLayouts are accepted when decoding; older batches carry no zone offset
var scrapedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON decodes a paper, accepting timestamps with or without a zone offset.
// An unrecognised timestamp leaves ScrapedAt zero.
func (p *Paper) UnmarshalJSON(data []byte) error {
	type alias Paper
	aux := struct {
		*alias
		ScrapedAt string `json:"scraped_at"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.ScrapedAt = time.Time{}
	if aux.ScrapedAt == "" {
		return nil
	}
	for _, layout := range scrapedAtLayouts {
		if t, err := time.ParseInLocation(layout, aux.ScrapedAt, time.Local); err == nil {
			p.ScrapedAt = t
			return nil
		}
	}
	return nil
}

// ListingSource fetches the raw markup of a listing page
type ListingSource interface {
	// FetchListing returns the listing for date, or the default listing when date is empty
	FetchListing(ctx context.Context, date string) (io.Reader, error)
}

// Mode tells how the text around a unit is interpreted
type Mode int

const (
	// ModeElement units are container elements matched by a strategy
	ModeElement Mode = iota
	// ModeLink units are bare paper links found by the fallback scan
	ModeLink
)

func (m Mode) String() string {
	if m == ModeLink {
		return "link"
	}
	return "element"
}

// Strategy is one step of the selector cascade
type Strategy struct {
	Name     string
	Selector string
}

// Find returns the units matched by the strategy
func (s Strategy) Find(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.Selector)
}

const (
	// Origin is used to resolve site-relative links
	Origin = "https://huggingface.co"

	// PaperPathMarker identifies paper detail links
	PaperPathMarker = "/papers/"

	// UnknownAuthors is the authors value when no pattern matched
	UnknownAuthors = "Unknown authors"

	maxTitleLength    = 100
	maxAbstractLength = 200
	minTitleLength    = 3
	minFinalTitle     = 5
	minAbstractLength = 10
)

// DefaultStrategies is the selector cascade, most structured first
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "article", Selector: "article"},
		{Name: "paper", Selector: `div[class*="paper"]`},
		{Name: "card", Selector: `div[class*="card"]`},
		{Name: "item", Selector: `div[class*="item"]`},
		{Name: "paper-link", Selector: `a[href*="/papers/"]`},
		{Name: "border", Selector: `div[class*="border"]`},
	}
}

// titleSelectors are tried in order inside an element unit
var titleSelectors = []string{"h1", "h2", "h3", "h4", ".title", `[class*="title"]`}
