package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/summarizely/pdf-summarizer/constants"
	"github.com/summarizely/pdf-summarizer/internal/common"
	"github.com/summarizely/pdf-summarizer/internal/entity"
)

// InMemoryDSN keeps one shared in-memory database across connections,
// for tests and -inmem runs.
const InMemoryDSN = "file::memory:?cache=shared"

const sqliteUpsertSQL = `
INSERT INTO pdf_summaries
	(run_id, position, url, filename, long_summary, short_summary, status, error_message, created_at, updated_at)
VALUES
	(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, position) DO UPDATE SET
	url           = excluded.url,
	filename      = excluded.filename,
	long_summary  = excluded.long_summary,
	short_summary = excluded.short_summary,
	status        = excluded.status,
	error_message = excluded.error_message,
	updated_at    = excluded.updated_at
`

const sqliteListByRunSQL = `
SELECT run_id, position, url, filename, long_summary, short_summary, status, error_message, created_at, updated_at
FROM pdf_summaries
WHERE run_id = ?
ORDER BY position
`

// SQLiteStore persists job records in a local SQLite database. Used for
// runs without a Postgres DSN and for in-memory batches.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and ensures the
// schema exists.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.NewStoreError("open", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, common.NewStoreError("ensure schema", err)
	}
	logger.Info("sqlite store ready", "path", path)
	return &SQLiteStore{db: db, log: logger}, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, rec *entity.JobRecord) error {
	// Timestamps travel as RFC3339 text to keep the round trip exact.
	_, err := s.db.ExecContext(ctx, sqliteUpsertSQL,
		rec.RunID.String(), rec.Index, rec.URL, rec.Filename,
		rec.LongSummary, rec.ShortSummary, string(rec.Status), rec.ErrorMessage,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Error("job upsert failed", "run_id", rec.RunID, "position", rec.Index, "err", err)
		return common.NewStoreError("upsert", err)
	}
	return nil
}

func (s *SQLiteStore) ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListByRunSQL, runID.String())
	if err != nil {
		return nil, common.NewStoreError("list", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.log.Warn("rows close failed", "err", cerr)
		}
	}()

	var out []*entity.JobRecord
	for rows.Next() {
		var rec entity.JobRecord
		var runStr, status, created, updated string
		if err := rows.Scan(&runStr, &rec.Index, &rec.URL, &rec.Filename,
			&rec.LongSummary, &rec.ShortSummary, &status, &rec.ErrorMessage,
			&created, &updated); err != nil {
			return nil, common.NewStoreError("scan", err)
		}
		rec.RunID, _ = uuid.Parse(runStr)
		rec.Status = constants.JobStatus(status)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreError("list", err)
	}
	return out, nil
}

// HealthCheck pings the database.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
