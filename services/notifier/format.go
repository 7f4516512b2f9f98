package notifier

import (
	"fmt"
	"time"

	"sjsage522/paperworker/helpers"
	"sjsage522/paperworker/internal/crawler"
)

const (
	// DefaultChunkSize keeps a message well below Slack's 50 block limit
	DefaultChunkSize = 20

	abstractPreviewLength = 150
)

// Message is one Slack webhook payload and the papers it announces
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks"`

	Papers []crawler.Paper `json:"-"`
}

// Block is a Slack layout block
type Block struct {
	Type      string   `json:"type"`
	Text      *Text    `json:"text,omitempty"`
	Accessory *Element `json:"accessory,omitempty"`
}

// Text is a Slack text object
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Element is a Slack block element
type Element struct {
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Format splits papers into consecutive chunks of at most maxPerChunk
// and renders one message per chunk.
func Format(papers []crawler.Paper, maxPerChunk int, now time.Time) []Message {
	if len(papers) == 0 {
		return nil
	}
	if maxPerChunk <= 0 {
		maxPerChunk = DefaultChunkSize
	}

	total := len(papers)
	parts := (total + maxPerChunk - 1) / maxPerChunk
	header := Block{
		Type: "header",
		Text: &Text{Type: "plain_text", Text: "📚 Latest Papers Update - " + now.Format("2006-01-02")},
	}

	messages := make([]Message, 0, parts)
	for part := 0; part < parts; part++ {
		start := part * maxPerChunk
		end := min(start+maxPerChunk, total)
		chunk := papers[start:end]

		blocks := []Block{header}
		if parts > 1 {
			blocks = append(blocks, Block{
				Type: "section",
				Text: &Text{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Part %d of %d* - Showing papers %d-%d of %d total", part+1, parts, start+1, end, total),
				},
			})
		}
		blocks = append(blocks, Block{Type: "divider"})

		for _, p := range chunk {
			blocks = append(blocks, paperBlock(p), Block{Type: "divider"})
		}

		messages = append(messages, Message{
			Text:   fmt.Sprintf("📚 %d new papers available", total),
			Blocks: blocks,
			Papers: chunk,
		})
	}
	return messages
}

func paperBlock(p crawler.Paper) Block {
	text := fmt.Sprintf("*%s*\n_%s_", p.Title, p.Authors)
	if p.Abstract != "" {
		text += "\n" + helpers.Truncate(p.Abstract, abstractPreviewLength) + "..."
	}

	block := Block{
		Type: "section",
		Text: &Text{Type: "mrkdwn", Text: text},
	}
	if p.Link != "" {
		block.Accessory = &Element{
			Type: "button",
			Text: &Text{Type: "plain_text", Text: "Read Paper"},
			URL:  p.Link,
		}
	}
	return block
}
