package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docgen/internal/apperr"
	"docgen/internal/generate"
	"docgen/internal/search"
	"docgen/internal/store"
)

// Searcher is the retrieval entry point the handlers call.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]store.SearchResult, error)
}

// Generator is the synthesis entry point the handlers call.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Document, error)
}

type handlers struct {
	store     store.Store
	searcher  Searcher
	generator Generator
	renderer  generate.Renderer
	log       *zap.SugaredLogger
}

type searchRequest struct {
	Query string `json:"query"`
	TopN  int    `json:"top_n"`
	Year  *int   `json:"year"`
}

type generateRequest struct {
	Brief         string `json:"brief"`
	SearchResults int    `json:"search_results"`
	Format        string `json:"format"`
}

type ingestRequest struct {
	ReportID   string             `json:"report_id"`
	Title      string             `json:"title"`
	Year       int                `json:"year"`
	SourceFile string             `json:"source_file"`
	Chunks     []store.ChunkInput `json:"chunks"`
}

func (h *handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	results, err := h.searcher.Search(c.Request.Context(), search.Query{
		Text: req.Query,
		TopN: req.TopN,
		Year: req.Year,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "results": results})
}

func (h *handlers) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	doc, err := h.generator.Generate(c.Request.Context(), generate.Request{
		Brief:         req.Brief,
		SearchResults: req.SearchResults,
		Format:        req.Format,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"document": doc}
	if req.Format != "" && h.renderer != nil {
		artifact, err := h.renderer.Render(doc)
		if err != nil {
			// Render errors surface unchanged; the document itself stands.
			c.JSON(http.StatusInternalServerError, gin.H{"document": doc, "error": err.Error()})
			return
		}
		resp["artifact"] = artifact
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ids, err := h.store.IngestReport(store.Report{
		ID:         req.ReportID,
		Title:      req.Title,
		Year:       req.Year,
		SourceFile: req.SourceFile,
	}, req.Chunks)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report_id": req.ReportID,
		"chunks":    len(ids),
		"status":    "ingested, embedding pending",
	})
}

func (h *handlers) ListReports(c *gin.Context) {
	reports, err := h.store.ListReports()
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(reports))
	for _, r := range reports {
		out = append(out, gin.H{
			"report_id":   r.ID,
			"title":       r.Title,
			"year":        r.Year,
			"source_file": r.SourceFile,
			"ingested_at": r.IngestedAt,
			"chunks":      r.Chunks,
		})
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

func (h *handlers) DeleteReport(c *gin.Context) {
	if err := h.store.DeleteReport(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// fail maps the error taxonomy onto HTTP status codes with an actionable
// hint where one exists.
func (h *handlers) fail(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var status int
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrIngestion):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrInsufficientContext):
		status = http.StatusUnprocessableEntity
		body["hint"] = "broaden your query or brief"
	case errors.Is(err, apperr.ErrProviderUnavailable), errors.Is(err, apperr.ErrTimeout):
		status = http.StatusServiceUnavailable
		body["hint"] = "try again later"
	case errors.Is(err, apperr.ErrProviderError):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.log.Errorw("request failed", "status", status, "error", err)
	} else {
		h.log.Debugw("request rejected", "status", status, "error", err)
	}
	c.JSON(status, body)
}
