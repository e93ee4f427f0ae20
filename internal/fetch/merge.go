// Package fetch orchestrates multi-source news retrieval: it invokes source
// adapters with a per-tier fallback chain and merges their batches into one
// deduplicated, recency-ordered stream.
package fetch

import (
	"sort"

	"github.com/finpulse/finpulse/pkg/models"
)

// Merge combines article batches into a single ordered sequence. Batches are
// concatenated in the caller-supplied priority order; within the
// concatenation the first occurrence of a URL wins and later duplicates are
// dropped, as are articles with no URL at all. The result is sorted by
// publication time, newest first, with unknown timestamps last. Pure and
// deterministic for a fixed input order.
func Merge(batches ...[]models.Article) []models.Article {
	seen := make(map[string]bool)
	var merged []models.Article
	for _, batch := range batches {
		for _, a := range batch {
			if a.URL == "" || seen[a.URL] {
				continue
			}
			seen[a.URL] = true
			merged = append(merged, a)
		}
	}

	// Stable: equal timestamps keep their priority order from above. A zero
	// PublishedAt never sorts After anything, so unknown dates end up last.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	return merged
}
