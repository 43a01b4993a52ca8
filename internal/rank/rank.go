// Package rank scores and orders candidate chunks against a query vector.
package rank

import (
	"fmt"
	"math"
	"sort"

	"docgen/internal/apperr"
	"docgen/internal/store"
)

// scoreEpsilon absorbs floating-point noise when comparing scores, so ties
// break deterministically by chunk ID instead of by accumulation order.
const scoreEpsilon = 1e-9

// Rank scores all candidates by cosine similarity to the query vector and
// returns the topN best, most-similar first. Candidates with a zero-norm or
// dimension-mismatched embedding are unscoreable and excluded. If fewer than
// topN candidates are scoreable, all of them are returned.
func Rank(query []float32, candidates []store.Candidate, topN int) ([]store.SearchResult, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: topN must be positive, got %d", apperr.ErrInvalidArgument, topN)
	}

	results := make([]store.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		score, ok := cosineSimilarity(query, c.Embedding)
		if !ok {
			continue
		}
		results = append(results, store.SearchResult{
			ChunkID:   c.ID,
			ReportID:  c.ReportID,
			Score:     score,
			Heading:   c.Heading,
			PageRange: c.PageRange,
			Text:      c.Text,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if math.Abs(results[i].Score-results[j].Score) > scoreEpsilon {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// cosineSimilarity returns dot(a,b) / (||a|| * ||b||). The second return is
// false when either vector has zero norm or the dimensions differ.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
