// Package ingest loads pre-chunked report documents into the store and runs
// the embedding batch driver over pending chunks. PDF parsing happens
// upstream; this package consumes its already-chunked JSON output.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"docgen/internal/store"
)

// Document is the chunk-file format produced by the upstream parser.
type Document struct {
	ReportID   string             `json:"report_id"`
	Title      string             `json:"title"`
	Year       int                `json:"year"`
	SourceFile string             `json:"source_file"`
	Chunks     []store.ChunkInput `json:"chunks"`
}

// ReportStore is the store subset ingestion writes to.
type ReportStore interface {
	IngestReport(r store.Report, chunks []store.ChunkInput) ([]string, error)
}

// Stats tallies a directory ingestion run.
type Stats struct {
	Total    int
	Ingested int
	Failed   int
	Chunks   int
}

// IngestFile loads one chunk-file and stores its report. Re-ingesting an
// existing report replaces it and all its chunks.
func IngestFile(st ReportStore, path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", 0, fmt.Errorf("parse %s: %w", path, err)
	}

	ids, err := st.IngestReport(store.Report{
		ID:         doc.ReportID,
		Title:      doc.Title,
		Year:       doc.Year,
		SourceFile: doc.SourceFile,
	}, doc.Chunks)
	if err != nil {
		return doc.ReportID, 0, err
	}
	return doc.ReportID, len(ids), nil
}

// IngestDir ingests every *.json chunk-file in dir, continuing past
// individual failures.
func IngestDir(st ReportStore, dir string, log *zap.SugaredLogger) (Stats, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return Stats{}, err
	}
	sort.Strings(paths)

	var stats Stats
	stats.Total = len(paths)
	for _, path := range paths {
		reportID, n, err := IngestFile(st, path)
		if err != nil {
			stats.Failed++
			log.Warnw("ingestion failed", "file", path, "error", err)
			continue
		}
		stats.Ingested++
		stats.Chunks += n
		log.Infow("report ingested", "report_id", reportID, "chunks", n)
	}
	return stats, nil
}
