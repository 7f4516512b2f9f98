package crawler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperJSON(t *testing.T) {
	paper := Paper{
		Title:     "Attention Is All You Need",
		Authors:   "8 authors",
		Abstract:  "final sentence.",
		Link:      "https://huggingface.co/papers/1706.03762",
		ScrapedAt: time.Date(2024, 6, 12, 9, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(paper)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Attention Is All You Need",
		"authors": "8 authors",
		"abstract": "final sentence.",
		"link": "https://huggingface.co/papers/1706.03762",
		"scraped_at": "2024-06-12T09:30:00Z"
	}`, string(data))

	var decoded Paper
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, paper.ScrapedAt.Equal(decoded.ScrapedAt))
	assert.Equal(t, paper.Title, decoded.Title)
}

func TestPaperUnmarshalTimestamps(t *testing.T) {
	var p Paper
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Legacy Paper","scraped_at":"2024-06-12T09:30:00.123456"}`), &p))
	assert.Equal(t, "Legacy Paper", p.Title)
	assert.Equal(t, 123456000, p.ScrapedAt.Nanosecond())
	assert.Equal(t, 9, p.ScrapedAt.Hour())

	require.NoError(t, json.Unmarshal([]byte(`{"title":"No Timestamp Paper"}`), &p))
	assert.True(t, p.ScrapedAt.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"title":"Spaced Paper","scraped_at":"2024-06-12 09:30:00"}`), &p))
	assert.Equal(t, 30, p.ScrapedAt.Minute())

	// Unknown formats decode with a zero timestamp instead of failing
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Odd Timestamp Paper","scraped_at":"yesterday"}`), &p))
	assert.Equal(t, "Odd Timestamp Paper", p.Title)
	assert.True(t, p.ScrapedAt.IsZero())
}
