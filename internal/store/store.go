package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"docgen/internal/apperr"
)

func init() {
	sqlite_vec.Auto()
}

// Store provides persistence for reports, chunks, and embeddings.
type Store interface {
	// IngestReport replaces the report and all its chunks atomically. Each
	// chunk is created in pending state with ID "<reportID>-<ordinal>".
	// Fails with apperr.ErrIngestion if any chunk text is empty; the whole
	// batch is rejected, never partially applied.
	IngestReport(r Report, chunks []ChunkInput) ([]string, error)
	// GetReport returns a report by ID, or apperr.ErrNotFound.
	GetReport(reportID string) (Report, error)
	// ListReports returns all reports with their chunk counts.
	ListReports() ([]Report, error)
	// DeleteReport removes a report and cascades to its chunks.
	DeleteReport(reportID string) error
	// ListChunksByStatus returns chunk IDs and text for the given statuses,
	// in insertion order. Used by the embedding batch driver.
	ListChunksByStatus(statuses ...ChunkStatus) ([]ChunkText, error)
	// SetEmbedding stores a vector and transitions the chunk to embedded.
	// Returns apperr.ErrNotFound if the chunk no longer exists, e.g. its
	// report was deleted concurrently.
	SetEmbedding(chunkID string, vec []float32) error
	// MarkFailed transitions a chunk to failed with a reason. Failed chunks
	// are excluded from ranking until re-embedded.
	MarkFailed(chunkID, reason string) error
	// ResetEmbeddings clears all vectors and returns every chunk to pending.
	// This is the explicit re-embedding request; nothing else moves an
	// embedded chunk back to pending.
	ResetEmbeddings() error
	// QueryEmbedded returns all embedded chunks, optionally filtered by the
	// owning report's year. The year comes from a join against reports, so
	// a re-ingested report's year is reflected immediately.
	QueryEmbedded(year *int) ([]Candidate, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite, with embedding vectors
// serialized in the sqlite-vec blob format.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) IngestReport(r Report, chunks []ChunkInput) ([]string, error) {
	if strings.TrimSpace(r.ID) == "" {
		return nil, fmt.Errorf("%w: report ID is empty", apperr.ErrIngestion)
	}
	for i, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("%w: chunk %d of report %s has empty text", apperr.ErrIngestion, i, r.ID)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Re-ingestion is a full replace: drop the old report, cascade drops
	// its chunks, then insert fresh rows in pending state.
	if _, err := tx.Exec("DELETE FROM reports WHERE report_id = ?", r.ID); err != nil {
		return nil, err
	}
	_, err = tx.Exec(
		"INSERT INTO reports (report_id, title, year, source_file) VALUES (?, ?, ?, ?)",
		r.ID, r.Title, r.Year, r.SourceFile,
	)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(
		"INSERT INTO chunks (chunk_id, report_id, ordinal, heading, page_range, text_content, status) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(chunks))
	for i, c := range chunks {
		id := fmt.Sprintf("%s-%d", r.ID, i)
		if _, err := stmt.Exec(id, r.ID, i, c.Heading, c.PageRange, c.Text, string(StatusPending)); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SQLiteStore) GetReport(reportID string) (Report, error) {
	var r Report
	err := s.db.QueryRow(`
		SELECT r.report_id, r.title, r.year, r.source_file, r.ingested_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.report_id = r.report_id)
		FROM reports r WHERE r.report_id = ?
	`, reportID).Scan(&r.ID, &r.Title, &r.Year, &r.SourceFile, &r.IngestedAt, &r.Chunks)
	if err == sql.ErrNoRows {
		return Report{}, fmt.Errorf("%w: report %q", apperr.ErrNotFound, reportID)
	}
	return r, err
}

func (s *SQLiteStore) ListReports() ([]Report, error) {
	rows, err := s.db.Query(`
		SELECT r.report_id, r.title, r.year, r.source_file, r.ingested_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.report_id = r.report_id)
		FROM reports r ORDER BY r.report_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.Title, &r.Year, &r.SourceFile, &r.IngestedAt, &r.Chunks); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *SQLiteStore) DeleteReport(reportID string) error {
	res, err := s.db.Exec("DELETE FROM reports WHERE report_id = ?", reportID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: report %q", apperr.ErrNotFound, reportID)
	}
	return nil
}

func (s *SQLiteStore) ListChunksByStatus(statuses ...ChunkStatus) ([]ChunkText, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: no statuses given", apperr.ErrInvalidArgument)
	}
	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}

	rows, err := s.db.Query(
		"SELECT chunk_id, text_content FROM chunks WHERE status IN ("+placeholders+") ORDER BY rowid",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []ChunkText
	for rows.Next() {
		var c ChunkText
		if err := rows.Scan(&c.ID, &c.Text); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) SetEmbedding(chunkID string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty embedding for chunk %q", apperr.ErrInvalidArgument, chunkID)
	}
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return fmt.Errorf("serialize embedding for chunk %s: %w", chunkID, err)
	}
	res, err := s.db.Exec(
		"UPDATE chunks SET embedding = ?, status = ?, fail_reason = '' WHERE chunk_id = ?",
		blob, string(StatusEmbedded), chunkID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: chunk %q", apperr.ErrNotFound, chunkID)
	}
	return nil
}

func (s *SQLiteStore) MarkFailed(chunkID, reason string) error {
	res, err := s.db.Exec(
		"UPDATE chunks SET status = ?, fail_reason = ? WHERE chunk_id = ?",
		string(StatusFailed), reason, chunkID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: chunk %q", apperr.ErrNotFound, chunkID)
	}
	return nil
}

func (s *SQLiteStore) ResetEmbeddings() error {
	_, err := s.db.Exec(
		"UPDATE chunks SET embedding = NULL, status = ?, fail_reason = ''",
		string(StatusPending),
	)
	return err
}

func (s *SQLiteStore) QueryEmbedded(year *int) ([]Candidate, error) {
	q := `
		SELECT c.chunk_id, c.report_id, c.heading, c.page_range, c.text_content, vec_to_json(c.embedding)
		FROM chunks c
		JOIN reports r ON r.report_id = c.report_id
		WHERE c.status = ? AND c.embedding IS NOT NULL
	`
	args := []any{string(StatusEmbedded)}
	if year != nil {
		q += " AND r.year = ?"
		args = append(args, *year)
	}
	q += " ORDER BY c.report_id, c.ordinal"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		var vecJSON string
		if err := rows.Scan(&c.ID, &c.ReportID, &c.Heading, &c.PageRange, &c.Text, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vecJSON), &c.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding for chunk %s: %w", c.ID, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
