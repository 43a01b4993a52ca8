package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docgen/internal/apperr"
	"docgen/internal/generate"
	"docgen/internal/search"
	"docgen/internal/store"
)

type stubSearcher struct {
	results []store.SearchResult
	err     error
	gotQ    search.Query
}

func (s *stubSearcher) Search(_ context.Context, q search.Query) ([]store.SearchResult, error) {
	s.gotQ = q
	return s.results, s.err
}

type stubGenerator struct {
	doc *generate.Document
	err error
}

func (s *stubGenerator) Generate(_ context.Context, _ generate.Request) (*generate.Document, error) {
	return s.doc, s.err
}

type stubRenderer struct {
	path string
	err  error
}

func (s *stubRenderer) Render(_ *generate.Document) (string, error) {
	return s.path, s.err
}

func newTestRouter(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg.Store == nil {
		st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		cfg.Store = st
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	return NewRouter(cfg)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, Config{Searcher: &stubSearcher{}, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &stubSearcher{results: []store.SearchResult{
		{ChunkID: "R1-0", ReportID: "R1", Score: 0.9, Heading: "Rost", PageRange: "2", Text: "Rostschäden"},
	}}
	r := newTestRouter(t, Config{Searcher: searcher, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodPost, "/api/search", gin.H{"query": "Rost", "top_n": 1, "year": 2022})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rost", searcher.gotQ.Text)
	assert.Equal(t, 1, searcher.gotQ.TopN)
	require.NotNil(t, searcher.gotQ.Year)
	assert.Equal(t, 2022, *searcher.gotQ.Year)

	body := decodeBody(t, w)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "R1-0", first["chunk_id"])
	assert.Equal(t, 0.9, first["similarity_score"])
}

func TestSearchEndpointEmptyResults(t *testing.T) {
	r := newTestRouter(t, Config{Searcher: &stubSearcher{}, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodPost, "/api/search", gin.H{"query": "nichts"})
	assert.Equal(t, http.StatusOK, w.Code)
	// Empty result set is a 200 with an empty list, never null.
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestSearchEndpointInvalidArgument(t *testing.T) {
	searcher := &stubSearcher{err: apperr.ErrInvalidArgument}
	r := newTestRouter(t, Config{Searcher: searcher, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodPost, "/api/search", gin.H{"query": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpointProviderDown(t *testing.T) {
	searcher := &stubSearcher{err: apperr.ErrProviderUnavailable}
	r := newTestRouter(t, Config{Searcher: searcher, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodPost, "/api/search", gin.H{"query": "Rost"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "try again later", decodeBody(t, w)["hint"])
}

func TestGenerateEndpoint(t *testing.T) {
	doc := &generate.Document{ID: "doc-1", Title: "Synthesized Report: Rost", Body: "Bericht.", Citations: []string{"R1-0"}}
	r := newTestRouter(t, Config{Searcher: &stubSearcher{}, Generator: &stubGenerator{doc: doc}})

	w := doJSON(t, r, http.MethodPost, "/api/generate", gin.H{"brief": "Rost"})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	got := body["document"].(map[string]any)
	assert.Equal(t, "doc-1", got["id"])
	assert.Nil(t, body["artifact"])
}

func TestGenerateEndpointRendersArtifact(t *testing.T) {
	doc := &generate.Document{ID: "doc-1", Body: "Bericht.", Format: "markdown"}
	r := newTestRouter(t, Config{
		Searcher:  &stubSearcher{},
		Generator: &stubGenerator{doc: doc},
		Renderer:  &stubRenderer{path: "out/doc-1.md"},
	})

	w := doJSON(t, r, http.MethodPost, "/api/generate", gin.H{"brief": "Rost", "format": "markdown"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "out/doc-1.md", decodeBody(t, w)["artifact"])
}

func TestGenerateEndpointRenderFailure(t *testing.T) {
	doc := &generate.Document{ID: "doc-1", Body: "Bericht.", Format: "pdf"}
	r := newTestRouter(t, Config{
		Searcher:  &stubSearcher{},
		Generator: &stubGenerator{doc: doc},
		Renderer:  &stubRenderer{err: assert.AnError},
	})

	w := doJSON(t, r, http.MethodPost, "/api/generate", gin.H{"brief": "Rost", "format": "pdf"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	// The document survives a failed render.
	assert.Equal(t, "doc-1", body["document"].(map[string]any)["id"])
	assert.NotEmpty(t, body["error"])
}

func TestGenerateEndpointInsufficientContext(t *testing.T) {
	r := newTestRouter(t, Config{
		Searcher:  &stubSearcher{},
		Generator: &stubGenerator{err: apperr.ErrInsufficientContext},
	})

	w := doJSON(t, r, http.MethodPost, "/api/generate", gin.H{"brief": "nichts"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "broaden your query or brief", decodeBody(t, w)["hint"])
}

func TestGenerateEndpointModelFailure(t *testing.T) {
	r := newTestRouter(t, Config{
		Searcher:  &stubSearcher{},
		Generator: &stubGenerator{err: apperr.ErrProviderError},
	})

	w := doJSON(t, r, http.MethodPost, "/api/generate", gin.H{"brief": "Rost"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestIngestEndpoint(t *testing.T) {
	r := newTestRouter(t, Config{Searcher: &stubSearcher{}, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodPost, "/api/ingest", gin.H{
		"report_id": "R1",
		"title":     "Windkraft",
		"year":      2022,
		"chunks": []gin.H{
			{"heading": "Einleitung", "page_range": "1", "text": "Übersicht."},
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "R1", body["report_id"])
	assert.Equal(t, float64(1), body["chunks"])

	w = doJSON(t, r, http.MethodGet, "/api/reports", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	reports := decodeBody(t, w)["reports"].([]any)
	require.Len(t, reports, 1)
	assert.Equal(t, "R1", reports[0].(map[string]any)["report_id"])
}

func TestIngestEndpointEmptyChunkText(t *testing.T) {
	r := newTestRouter(t, Config{Searcher: &stubSearcher{}, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodPost, "/api/ingest", gin.H{
		"report_id": "R1",
		"year":      2022,
		"chunks":    []gin.H{{"heading": "H", "page_range": "1", "text": " "}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReportEndpoint(t *testing.T) {
	r := newTestRouter(t, Config{Searcher: &stubSearcher{}, Generator: &stubGenerator{}})

	w := doJSON(t, r, http.MethodPost, "/api/ingest", gin.H{
		"report_id": "R1",
		"year":      2022,
		"chunks":    []gin.H{{"heading": "H", "page_range": "1", "text": "Text."}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/reports/R1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/reports/R1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchEndpointMalformedBody(t *testing.T) {
	r := newTestRouter(t, Config{Searcher: &stubSearcher{}, Generator: &stubGenerator{}})

	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
