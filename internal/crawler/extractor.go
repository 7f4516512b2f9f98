package crawler

import (
	"fmt"
	"io"
	"strings"
	"time"

	"sjsage522/paperworker/helpers"
	"sjsage522/paperworker/logger"
	"sjsage522/paperworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns listing markup into papers using the selector cascade
type Extractor struct {
	strategies []Strategy
	origin     string
	now        func() time.Time
	log        *logger.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithStrategies replaces the default selector cascade
func WithStrategies(strategies []Strategy) Option {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// WithOrigin sets the origin used to resolve site-relative links
func WithOrigin(origin string) Option {
	return func(e *Extractor) {
		e.origin = origin
	}
}

// WithClock sets the clock used for ScrapedAt
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(log *logger.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

// NewExtractor creates an extractor with the default cascade
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: DefaultStrategies(),
		origin:     Origin,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.ForCrawler()
	}
	return e
}

// Extract parses markup and returns every paper it can recognise
func (e *Extractor) Extract(markup string) []Paper {
	return e.ExtractReader(strings.NewReader(markup))
}

// ExtractReader is Extract for a reader. It never fails: on total failure
// the result is empty and the cause is logged.
func (e *Extractor) ExtractReader(r io.Reader) (papers []Paper) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Interface("panic", rec).Msg("Extraction aborted")
			papers = nil
		}
	}()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		e.log.Error().Err(errors.NewParsing("crawler", "parse listing HTML", err)).Msg("Extraction failed")
		return nil
	}

	units, mode, name := e.selectUnits(doc)
	e.log.Info().
		Str("strategy", name).
		Str("mode", mode.String()).
		Int("units", units.Length()).
		Msg("Selected extraction units")

	var extracted []Paper
	units.Each(func(i int, s *goquery.Selection) {
		paper, err := e.buildSafe(s, mode)
		if err != nil {
			e.log.Warn().Err(err).Int("unit", i).Msg("Skipping unit")
			return
		}
		if paper != nil {
			extracted = append(extracted, *paper)
		}
	})

	papers = make([]Paper, 0, len(extracted))
	for _, p := range extracted {
		if helpers.RuneLen(p.Title) > minFinalTitle {
			papers = append(papers, p)
		}
	}

	e.log.Info().Int("papers", len(papers)).Msg("Extraction finished")
	return papers
}

// selectUnits runs the cascade; the first strategy with a match wins.
// Without any match every paper link becomes a unit.
func (e *Extractor) selectUnits(doc *goquery.Document) (*goquery.Selection, Mode, string) {
	for _, strategy := range e.strategies {
		sel := strategy.Find(doc)
		if sel.Length() > 0 {
			return sel, ModeElement, strategy.Name
		}
	}

	links := doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return strings.Contains(href, PaperPathMarker)
	})
	return links, ModeLink, "link-scan"
}

func (e *Extractor) buildSafe(s *goquery.Selection, mode Mode) (paper *Paper, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewParsing("crawler", "extract unit", fmt.Errorf("%v", rec))
		}
	}()

	if mode == ModeLink {
		return e.fromLink(s), nil
	}
	return e.fromElement(s), nil
}

// fromElement builds a paper from a container element, or nil when it has no usable title
func (e *Extractor) fromElement(s *goquery.Selection) *Paper {
	var title string
	for _, selector := range titleSelectors {
		found := s.Find(selector).First()
		if found.Length() > 0 {
			title = normalizeSpace(found.Text())
			break
		}
	}
	if title == "" {
		title = helpers.Truncate(normalizeSpace(s.Text()), maxTitleLength)
	}
	if helpers.RuneLen(title) <= minTitleLength {
		return nil
	}

	text := s.Text()
	return &Paper{
		Title:     title,
		Authors:   ExtractAuthors(text),
		Abstract:  ElementAbstract(text),
		Link:      e.firstLink(s),
		ScrapedAt: e.now(),
	}
}

// fromLink builds a paper from a bare paper link and its parent's text
func (e *Extractor) fromLink(s *goquery.Selection) *Paper {
	title := normalizeSpace(s.Text())
	if helpers.RuneLen(title) <= minTitleLength {
		return nil
	}

	href, _ := s.Attr("href")

	var text string
	if parent := s.Parent(); parent.Length() > 0 {
		text = parent.Text()
	}

	return &Paper{
		Title:     title,
		Authors:   ExtractAuthors(text),
		Abstract:  LinkAbstract(text),
		Link:      helpers.ResolveURL(e.origin, strings.TrimSpace(href)),
		ScrapedAt: e.now(),
	}
}

// firstLink returns the unit's own href when it is an anchor,
// else the first descendant anchor's href
func (e *Extractor) firstLink(s *goquery.Selection) string {
	if goquery.NodeName(s) == "a" {
		if href, ok := s.Attr("href"); ok {
			return helpers.ResolveURL(e.origin, strings.TrimSpace(href))
		}
	}

	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	return helpers.ResolveURL(e.origin, strings.TrimSpace(href))
}
