package notifier

import (
	"context"
	"fmt"
	"time"

	"sjsage522/paperworker/internal/crawler"
	"sjsage522/paperworker/logger"
	"sjsage522/paperworker/pkg/errors"

	"golang.org/x/time/rate"
)

// Notifier announces papers in chunks, pacing deliveries
type Notifier struct {
	deliverer Deliverer
	chunkSize int
	delay     time.Duration
	now       func() time.Time
	log       *logger.Logger
}

// NewNotifier creates a notifier. A zero delay sends chunks back to back.
func NewNotifier(deliverer Deliverer, chunkSize int, delay time.Duration) *Notifier {
	return &Notifier{
		deliverer: deliverer,
		chunkSize: chunkSize,
		delay:     delay,
		now:       time.Now,
		log:       logger.ForNotifier(),
	}
}

func (n *Notifier) limiter() *rate.Limiter {
	if n.delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(n.delay), 1)
}

// Notify delivers every chunk in order and stops at the first failure
func (n *Notifier) Notify(ctx context.Context, papers []crawler.Paper) error {
	if len(papers) == 0 {
		return errors.NewNotify("notifier", "no papers to notify", nil)
	}

	messages := Format(papers, n.chunkSize, n.now())
	limiter := n.limiter()

	for i, msg := range messages {
		if err := limiter.Wait(ctx); err != nil {
			return errors.NewNotify("notifier", "wait between chunks", err)
		}

		n.log.Info().
			Int("chunk", i+1).
			Int("chunks", len(messages)).
			Int("papers", len(msg.Papers)).
			Msg("Posting chunk")

		if err := n.deliverer.Deliver(ctx, msg); err != nil {
			return fmt.Errorf("chunk %d of %d: %w", i+1, len(messages), err)
		}
	}

	n.log.Info().Int("papers", len(papers)).Msg("Posted all papers")
	return nil
}
