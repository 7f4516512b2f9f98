package notifier

import (
	"context"
	"fmt"
	"time"

	"sjsage522/paperworker/pkg/errors"

	"github.com/go-resty/resty/v2"
)

// Deliverer sends one formatted message
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// SlackWebhook posts messages to an incoming webhook
type SlackWebhook struct {
	url    string
	client *resty.Client
}

var _ Deliverer = (*SlackWebhook)(nil)

// NewSlackWebhook creates a deliverer for the webhook url
func NewSlackWebhook(url string, timeout time.Duration) *SlackWebhook {
	return &SlackWebhook{
		url:    url,
		client: resty.New().SetTimeout(timeout),
	}
}

// Deliver posts msg as JSON; any non-2xx status is an error
func (s *SlackWebhook) Deliver(ctx context.Context, msg Message) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(s.url)
	if err != nil {
		return errors.NewNetwork("notifier", "post webhook", err)
	}
	if resp.IsError() {
		return errors.NewNotify("notifier", fmt.Sprintf("webhook returned status %d: %s", resp.StatusCode(), resp.String()), nil)
	}
	return nil
}
