// Package server exposes the pipeline over HTTP.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docgen/internal/generate"
	"docgen/internal/store"
)

// Config wires the handlers' collaborators.
type Config struct {
	Store     store.Store
	Searcher  Searcher
	Generator Generator
	Renderer  generate.Renderer
	Log       *zap.SugaredLogger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg Config) *gin.Engine {
	h := &handlers{
		store:     cfg.Store,
		searcher:  cfg.Searcher,
		generator: cfg.Generator,
		renderer:  cfg.Renderer,
		log:       cfg.Log,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/healthcheck", h.HealthCheck)

	api := r.Group("/api")
	{
		api.POST("/search", h.Search)
		api.POST("/generate", h.Generate)
		api.POST("/ingest", h.Ingest)
		api.GET("/reports", h.ListReports)
		api.DELETE("/reports/:id", h.DeleteReport)
	}

	return r
}
