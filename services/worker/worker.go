package worker

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"sjsage522/paperworker/internal/crawler"
	"sjsage522/paperworker/logger"
	"sjsage522/paperworker/pkg/errors"
	"sjsage522/paperworker/services/archive"
	"sjsage522/paperworker/services/publisher"

	"github.com/google/uuid"
)

// PublishKey is the stream field carrying a paper
const PublishKey = "paper"

// Extractor turns listing markup into papers
type Extractor interface {
	ExtractReader(r io.Reader) []crawler.Paper
}

// Notifier announces papers
type Notifier interface {
	Notify(ctx context.Context, papers []crawler.Paper) error
}

// Archive persists papers into the day's batch
type Archive interface {
	Persist(ctx context.Context, day time.Time, papers []crawler.Paper) (*archive.Result, error)
}

// RunResult summarizes one pass of the pipeline
type RunResult struct {
	RunID          string    `json:"run_id"`
	PapersCount    int       `json:"papers_count"`
	NotifySuccess  bool      `json:"notify_success"`
	PersistSuccess bool      `json:"persist_success"`
	NewCount       int       `json:"new_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// Worker runs the fetch, extract, notify and persist pipeline
type Worker struct {
	source        crawler.ListingSource
	extractor     Extractor
	notifier      Notifier
	archive       Archive
	publisher     publisher.Publisher
	crawlInterval time.Duration
	now           func() time.Time
	log           *logger.Logger
}

// NewWorker creates a new worker. pub may be nil when no stream is configured.
func NewWorker(
	source crawler.ListingSource,
	extractor Extractor,
	notifier Notifier,
	arch Archive,
	pub publisher.Publisher,
	crawlInterval time.Duration,
) *Worker {
	return &Worker{
		source:        source,
		extractor:     extractor,
		notifier:      notifier,
		archive:       arch,
		publisher:     pub,
		crawlInterval: crawlInterval,
		now:           time.Now,
		log:           logger.ForWorker(),
	}
}

// Start runs the pipeline for the current listing every crawl interval until ctx is done
func (w *Worker) Start(ctx context.Context) error {
	for {
		start := w.now()
		result := w.Run(ctx, "")
		w.log.Info().
			Str("run_id", result.RunID).
			Dur("elapsed", w.now().Sub(start)).
			Dur("next_in", w.crawlInterval).
			Msg("Run finished")

		timer := time.NewTimer(w.crawlInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Run performs one pass for date, or for the current listing when date is empty.
// Failures are logged and reflected in the result, never returned.
func (w *Worker) Run(ctx context.Context, date string) (result RunResult) {
	result.RunID = uuid.NewString()
	log := w.log.WithField("run_id", result.RunID)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Run aborted")
		}
		result.Timestamp = w.now()
	}()

	started := w.now()
	log.Info().Str("date", date).Time("started_at", started).Msg("Starting run")

	papers := w.scrape(ctx, log, date)
	result.PapersCount = len(papers)
	if len(papers) == 0 {
		log.Info().Msg("No papers found")
		return result
	}
	log.Info().Int("papers", len(papers)).Str("sample", papers[0].Title).Msg("Scraped papers")

	if err := w.notifier.Notify(ctx, papers); err != nil {
		log.Error().Err(err).Msg("Notification failed")
	} else {
		result.NotifySuccess = true
	}

	persisted, err := w.archive.Persist(ctx, started, papers)
	if err != nil {
		log.Error().Err(err).Msg("Persisting batch failed")
	} else {
		result.PersistSuccess = true
		result.NewCount = len(persisted.Added)
		w.publish(ctx, log, persisted.Added)
	}

	log.Info().
		Int("papers", result.PapersCount).
		Bool("notify_success", result.NotifySuccess).
		Bool("persist_success", result.PersistSuccess).
		Int("new", result.NewCount).
		Msg("Run complete")
	return result
}

func (w *Worker) scrape(ctx context.Context, log *logger.Logger, date string) []crawler.Paper {
	body, err := w.source.FetchListing(ctx, date)
	if err != nil {
		log.Error().Err(err).Str("error_type", string(errors.TypeOf(err))).Msg("Fetching listing failed")
		return nil
	}
	return w.extractor.ExtractReader(body)
}

// publish sends newly archived papers to the record stream
func (w *Worker) publish(ctx context.Context, log *logger.Logger, papers []crawler.Paper) {
	if w.publisher == nil || len(papers) == 0 {
		return
	}

	published := 0
	for _, paper := range papers {
		data, err := json.Marshal(paper)
		if err != nil {
			log.Error().Err(errors.NewParsing("worker", "encode paper", err)).Msg("Skipping paper")
			continue
		}
		if err := w.publisher.Publish(ctx, PublishKey, data); err != nil {
			log.Error().Err(errors.NewPublisher("worker", "publish paper", err)).Str("title", paper.Title).Msg("Publish failed")
			continue
		}
		published++
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		log.Error().Err(errors.NewPublisher("worker", "trim streams", err)).Msg("Stream trimming failed")
	}
	log.Debug().Int("published", published).Msg("Published new papers")
}
