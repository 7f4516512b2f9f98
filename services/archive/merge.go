package archive

import "sjsage522/paperworker/internal/crawler"

// Merge appends the incoming papers whose titles are not already in existing.
// A nil existing batch means there is none yet. The order of existing is kept
// and new papers follow in incoming order; a title seen twice in incoming
// keeps its first occurrence. Merging the same incoming twice is a no-op.
func Merge(existing, incoming []crawler.Paper) []crawler.Paper {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]crawler.Paper, 0, len(existing)+len(incoming))

	for _, p := range existing {
		seen[p.Title] = struct{}{}
		merged = append(merged, p)
	}

	for _, p := range incoming {
		if _, ok := seen[p.Title]; ok {
			continue
		}
		seen[p.Title] = struct{}{}
		merged = append(merged, p)
	}

	return merged
}
