package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/store"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS quotes (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	text TEXT NOT NULL,
	normalized_text TEXT NOT NULL,
	text_hash TEXT UNIQUE NOT NULL,
	author TEXT NOT NULL,
	source TEXT,
	era TEXT NOT NULL,
	tradition TEXT NOT NULL,
	quality_score REAL NOT NULL,
	word_count INTEGER NOT NULL,
	run_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_quotes_position ON quotes(position);

CREATE TABLE IF NOT EXISTS quote_topics (
	quote_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	topic TEXT NOT NULL,
	UNIQUE(quote_id, topic),
	FOREIGN KEY(quote_id) REFERENCES quotes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	corpus_size INTEGER NOT NULL,
	stats_json TEXT
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// ReplaceCorpus deletes the stored corpus and inserts records in one
// transaction. A failure leaves the previous corpus in place.
func (s *sqliteStore) ReplaceCorpus(ctx context.Context, runID string, records []quote.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quotes`); err != nil {
		return err
	}

	quoteStmt, err := tx.PrepareContext(ctx, `
INSERT INTO quotes (id, position, text, normalized_text, text_hash, author, source, era, tradition, quality_score, word_count, run_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer quoteStmt.Close()

	topicStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO quote_topics (quote_id, position, topic) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer topicStmt.Close()

	for i, r := range records {
		if !r.Era.Valid() || !r.Tradition.Valid() {
			return fmt.Errorf("%w: record %s has era %q tradition %q", internalerr.ErrInvalidInput, r.ID, r.Era, r.Tradition)
		}
		_, err := quoteStmt.ExecContext(ctx,
			r.ID, i, r.Text, r.NormalizedText, r.TextHash, r.Author, r.Source,
			string(r.Era), string(r.Tradition), r.QualityScore, r.WordCount, runID)
		if err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
		for j, topic := range r.Topics {
			if topic == "" {
				continue
			}
			if _, err := topicStmt.ExecContext(ctx, r.ID, j, topic); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadCorpus returns every record in acceptance order
func (s *sqliteStore) LoadCorpus(ctx context.Context) ([]quote.Record, error) {
	topics, err := s.loadTopics(ctx, "")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, text, normalized_text, text_hash, author, source, era, tradition, quality_score, word_count
FROM quotes
ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []quote.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		r.Topics = append([]string{}, topics[r.ID]...)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetRecord retrieves a record by ID
func (s *sqliteStore) GetRecord(ctx context.Context, id string) (quote.Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, text, normalized_text, text_hash, author, source, era, tradition, quality_score, word_count
FROM quotes
WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return quote.Record{}, fmt.Errorf("record %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return quote.Record{}, err
	}

	topics, err := s.loadTopics(ctx, id)
	if err != nil {
		return quote.Record{}, err
	}
	r.Topics = append([]string{}, topics[id]...)
	return r, nil
}

// CorpusSize returns the number of stored records
func (s *sqliteStore) CorpusSize(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n)
	return n, err
}

// RecordRun inserts or updates a run
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, started_at, finished_at, corpus_size, stats_json)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	started_at=excluded.started_at,
	finished_at=excluded.finished_at,
	corpus_size=excluded.corpus_size,
	stats_json=excluded.stats_json`,
		r.ID,
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
		r.CorpusSize,
		r.StatsJSON,
	)
	return err
}

// LatestRun returns the most recently started run
func (s *sqliteStore) LatestRun(ctx context.Context) (store.Run, error) {
	runs, err := s.Runs(ctx, 1)
	if err != nil {
		return store.Run{}, err
	}
	if len(runs) == 0 {
		return store.Run{}, fmt.Errorf("latest run: %w", internalerr.ErrNotFound)
	}
	return runs[0], nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all.
func (s *sqliteStore) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, corpus_size, stats_json
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var (
			r                 store.Run
			started, finished string
			stats             sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.CorpusSize, &stats); err != nil {
			return nil, err
		}
		if parsed, perr := time.Parse(timeLayout, started); perr == nil {
			r.StartedAt = parsed
		}
		if parsed, perr := time.Parse(timeLayout, finished); perr == nil {
			r.FinishedAt = parsed
		}
		r.StatsJSON = stats.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (quote.Record, error) {
	var (
		r              quote.Record
		source         sql.NullString
		era, tradition string
	)
	err := row.Scan(&r.ID, &r.Text, &r.NormalizedText, &r.TextHash, &r.Author, &source,
		&era, &tradition, &r.QualityScore, &r.WordCount)
	if err != nil {
		return quote.Record{}, err
	}
	r.Source = source.String
	if r.Era, err = taxonomy.ParseEra(era); err != nil {
		return quote.Record{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.Tradition, err = taxonomy.ParseTradition(tradition); err != nil {
		return quote.Record{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return r, nil
}

// loadTopics returns topics per quote ID in stored order; id "" loads all.
func (s *sqliteStore) loadTopics(ctx context.Context, id string) (map[string][]string, error) {
	query := `SELECT quote_id, topic FROM quote_topics ORDER BY quote_id, position`
	var args []any
	if id != "" {
		query = `SELECT quote_id, topic FROM quote_topics WHERE quote_id = ? ORDER BY position`
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := make(map[string][]string)
	for rows.Next() {
		var qid, topic string
		if err := rows.Scan(&qid, &topic); err != nil {
			return nil, err
		}
		topics[qid] = append(topics[qid], topic)
	}
	return topics, rows.Err()
}
