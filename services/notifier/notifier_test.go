package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sjsage522/paperworker/logger"
	perrors "sjsage522/paperworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockDeliverer records delivered messages and can fail on a given call
type MockDeliverer struct {
	mu       sync.Mutex
	messages []Message
	times    []time.Time
	failOn   int
}

func (m *MockDeliverer) Deliver(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn > 0 && len(m.messages)+1 == m.failOn {
		return errors.New("webhook down")
	}
	m.messages = append(m.messages, msg)
	m.times = append(m.times, time.Now())
	return nil
}

func newTestNotifier(d Deliverer, chunkSize int, delay time.Duration) *Notifier {
	n := NewNotifier(d, chunkSize, delay)
	n.now = func() time.Time { return testNow }
	n.log = logger.Nop()
	return n
}

func TestNotifyDeliversChunksInOrder(t *testing.T) {
	d := &MockDeliverer{}
	n := newTestNotifier(d, 20, 20*time.Millisecond)

	require.NoError(t, n.Notify(context.Background(), makePapers(45)))
	require.Len(t, d.messages, 3)
	assert.Equal(t, "Paper number 1", d.messages[0].Papers[0].Title)
	assert.Equal(t, "Paper number 41", d.messages[2].Papers[0].Title)

	// Deliveries after the first are paced by the delay
	assert.GreaterOrEqual(t, d.times[2].Sub(d.times[0]), 30*time.Millisecond)
}

func TestNotifyStopsAtFirstFailure(t *testing.T) {
	d := &MockDeliverer{failOn: 2}
	n := newTestNotifier(d, 10, 0)

	err := n.Notify(context.Background(), makePapers(35))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 2 of 4")
	assert.Len(t, d.messages, 1)
}

func TestNotifyEmpty(t *testing.T) {
	d := &MockDeliverer{}
	err := newTestNotifier(d, 20, 0).Notify(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrorTypeNotify))
	assert.Empty(t, d.messages)
}

func TestNotifyCancelledWhileWaiting(t *testing.T) {
	d := &MockDeliverer{}
	n := newTestNotifier(d, 1, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := n.Notify(ctx, makePapers(2))
	require.Error(t, err)
	assert.Len(t, d.messages, 1)
}

func TestSlackWebhook(t *testing.T) {
	var received []map[string]interface{}
	status := http.StatusOK

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hook", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received = append(received, body)

		w.WriteHeader(status)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	hook := NewSlackWebhook(server.URL+"/hook", 5*time.Second)
	msg := Format(makePapers(2), 20, testNow)[0]

	require.NoError(t, hook.Deliver(context.Background(), msg))
	require.Len(t, received, 1)
	assert.Equal(t, "📚 2 new papers available", received[0]["text"])
	assert.Len(t, received[0]["blocks"], 6)

	status = http.StatusBadRequest
	err := hook.Deliver(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrorTypeNotify))
	assert.Contains(t, err.Error(), "400")
}
