package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/apperr"
)

func TestEmbedBatch(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{1, 0, 0}, {0, 1, 0}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text", 3, 5*time.Second)
	vecs, err := e.EmbedBatch(context.Background(), []string{"eins", "zwei"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0, 0}, vecs[0])

	assert.Equal(t, "nomic-embed-text", gotBody["model"])
	assert.Equal(t, []any{"eins", "zwei"}, gotBody["input"])
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	e := NewOllamaEmbedder("http://unused", "m", 3, time.Second)
	vecs, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", 3, time.Second)
	_, err := e.Embed(context.Background(), "text")
	assert.True(t, errors.Is(err, apperr.ErrProviderError))
	assert.Contains(t, err.Error(), "model not found")
}

func TestEmbedConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", 3, time.Second)
	_, err := e.Embed(context.Background(), "text")
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
}

func TestEmbedTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", 3, 10*time.Millisecond)
	_, err := e.Embed(context.Background(), "text")
	assert.True(t, errors.Is(err, apperr.ErrTimeout))
}

func TestEmbedCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewOllamaEmbedder(srv.URL, "m", 3, time.Second)
	_, err := e.Embed(ctx, "text")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, apperr.Retryable(err))
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", 3, time.Second)
	_, err := e.Embed(context.Background(), "text")
	assert.True(t, errors.Is(err, apperr.ErrProviderError))
}

func TestEmbedDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1, 0}}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", 3, time.Second)
	_, err := e.Embed(context.Background(), "text")
	assert.True(t, errors.Is(err, apperr.ErrProviderError))
	assert.Contains(t, err.Error(), "dimensions")
}
