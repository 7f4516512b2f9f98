package archive

import (
	"testing"
	"time"

	"sjsage522/paperworker/internal/crawler"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func papers(titles ...string) []crawler.Paper {
	at := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	out := make([]crawler.Paper, 0, len(titles))
	for i, title := range titles {
		out = append(out, crawler.Paper{
			Title:     title,
			Authors:   "1 authors",
			Link:      "https://huggingface.co/papers/" + title,
			ScrapedAt: at.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func titles(ps []crawler.Paper) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Title)
	}
	return out
}

func TestMerge(t *testing.T) {
	existing := papers("A", "B")
	incoming := papers("B", "C")

	merged := Merge(existing, incoming)
	assert.Equal(t, []string{"A", "B", "C"}, titles(merged))

	// B comes from the existing batch, not from incoming
	assert.Equal(t, existing[1], merged[1])
}

func TestMergeAbsentExisting(t *testing.T) {
	incoming := papers("X", "Y", "Z")

	if diff := cmp.Diff(incoming, Merge(nil, incoming)); diff != "" {
		t.Errorf("Merge(nil, incoming) mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIdempotent(t *testing.T) {
	testCases := []struct {
		name     string
		existing []crawler.Paper
		incoming []crawler.Paper
	}{
		{"overlap", papers("A", "B"), papers("B", "C")},
		{"absent", nil, papers("A", "B")},
		{"empty incoming", papers("A"), nil},
		{"disjoint", papers("A"), papers("B", "C", "D")},
		{"duplicate incoming", papers("A"), papers("C", "C", "A")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			once := Merge(tc.existing, tc.incoming)
			twice := Merge(once, tc.incoming)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("merge is not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestMergePreservesOrder(t *testing.T) {
	existing := papers("Z", "M", "A")
	incoming := papers("Q", "A", "B", "Z", "C")

	merged := Merge(existing, incoming)
	assert.Equal(t, []string{"Z", "M", "A", "Q", "B", "C"}, titles(merged))
}

func TestMergeUniqueTitles(t *testing.T) {
	merged := Merge(papers("A"), papers("C", "C", "a"))

	// Titles are compared case-sensitively
	assert.Equal(t, []string{"A", "C", "a"}, titles(merged))
}
