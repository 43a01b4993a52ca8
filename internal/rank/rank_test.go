package rank

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/apperr"
	"docgen/internal/store"
)

func candidate(id string, vec []float32) store.Candidate {
	return store.Candidate{ID: id, ReportID: "R1", Embedding: vec}
}

func TestRankIdenticalVectorsScoreOne(t *testing.T) {
	query := []float32{0.5, 0.25, 0.1}
	results, err := Rank(query, []store.Candidate{candidate("R1-0", []float32{0.5, 0.25, 0.1})}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestRankResultLength(t *testing.T) {
	query := []float32{1, 0}
	candidates := []store.Candidate{
		candidate("R1-0", []float32{1, 0}),
		candidate("R1-1", []float32{0.9, 0.1}),
		candidate("R1-2", []float32{0, 1}),
	}

	results, err := Rank(query, candidates, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = Rank(query, candidates, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3, "fewer candidates than topN returns all of them")
}

func TestRankInvalidTopN(t *testing.T) {
	for _, topN := range []int{0, -1} {
		_, err := Rank([]float32{1}, []store.Candidate{candidate("R1-0", []float32{1})}, topN)
		assert.True(t, errors.Is(err, apperr.ErrInvalidArgument), "topN=%d", topN)
	}
}

func TestRankOrdering(t *testing.T) {
	query := []float32{1, 0}
	candidates := []store.Candidate{
		candidate("R1-2", []float32{0, 1}),
		candidate("R1-0", []float32{1, 0}),
		candidate("R1-1", []float32{1, 1}),
	}

	results, err := Rank(query, candidates, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "R1-0", results[0].ChunkID)
	assert.Equal(t, "R1-1", results[1].ChunkID)
	assert.Equal(t, "R1-2", results[2].ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRankTieBreakByChunkID(t *testing.T) {
	query := []float32{1, 0}
	// Same direction, different magnitude: identical cosine scores.
	candidates := []store.Candidate{
		candidate("R2-0", []float32{2, 0}),
		candidate("R1-0", []float32{1, 0}),
		candidate("R1-5", []float32{4, 0}),
	}

	for range 5 {
		results, err := Rank(query, candidates, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "R1-0", results[0].ChunkID)
		assert.Equal(t, "R1-5", results[1].ChunkID)
		assert.Equal(t, "R2-0", results[2].ChunkID)
	}
}

func TestRankExcludesUnscoreable(t *testing.T) {
	query := []float32{1, 0}
	candidates := []store.Candidate{
		candidate("R1-0", []float32{0, 0}),       // zero norm
		candidate("R1-1", []float32{1, 0, 0, 0}), // dimension mismatch
		candidate("R1-2", []float32{0.5, 0.5}),
	}

	results, err := Rank(query, candidates, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "R1-2", results[0].ChunkID)
}

func TestCosineSimilarityRange(t *testing.T) {
	score, ok := cosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.True(t, ok)
	assert.InDelta(t, -1.0, score, 1e-9)

	score, ok = cosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, score, 1e-9)

	_, ok = cosineSimilarity(nil, nil)
	assert.False(t, ok)

	assert.False(t, math.IsNaN(score))
}
