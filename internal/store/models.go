package store

import "time"

// ChunkStatus tracks a chunk's embedding lifecycle.
type ChunkStatus string

const (
	StatusPending  ChunkStatus = "pending"
	StatusEmbedded ChunkStatus = "embedded"
	StatusFailed   ChunkStatus = "failed"
)

// Report represents one ingested source document. Immutable except by
// re-ingestion, which replaces the report and all its chunks.
type Report struct {
	ID         string
	Title      string
	Year       int
	SourceFile string
	IngestedAt time.Time
	Chunks     int
}

// ChunkInput is the pre-chunked text handed over by the ingestion producer.
type ChunkInput struct {
	Heading   string `json:"heading"`
	PageRange string `json:"page_range"`
	Text      string `json:"text"`
}

// ChunkText is a chunk identifier with its raw text, consumed by the
// embedding batch driver.
type ChunkText struct {
	ID   string
	Text string
}

// Candidate is an embedded chunk eligible for similarity ranking.
type Candidate struct {
	ID        string
	ReportID  string
	Heading   string
	PageRange string
	Text      string
	Embedding []float32
}

// SearchResult is a ranked chunk with its similarity score.
type SearchResult struct {
	ChunkID   string  `json:"chunk_id"`
	ReportID  string  `json:"report_id"`
	Score     float64 `json:"similarity_score"`
	Heading   string  `json:"heading"`
	PageRange string  `json:"page_range"`
	Text      string  `json:"text"`
}
