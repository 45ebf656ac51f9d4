package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/summarizely/pdf-summarizer/constants"
	"github.com/summarizely/pdf-summarizer/internal/common"
	"github.com/summarizely/pdf-summarizer/internal/entity"
)

const pgUpsertSQL = `
INSERT INTO pdf_summaries
	(run_id, position, url, filename, long_summary, short_summary, status, error_message, created_at, updated_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (run_id, position) DO UPDATE SET
	url           = EXCLUDED.url,
	filename      = EXCLUDED.filename,
	long_summary  = EXCLUDED.long_summary,
	short_summary = EXCLUDED.short_summary,
	status        = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	updated_at    = EXCLUDED.updated_at
`

const pgListByRunSQL = `
SELECT run_id, position, url, filename, long_summary, short_summary, status, error_message, created_at, updated_at
FROM pdf_summaries
WHERE run_id = $1
ORDER BY position
`

// PostgresStore persists job records in Postgres via a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// OpenPostgres creates the pool, ensures the schema, and returns the store.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "dsn", cfg.DSN)

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, common.NewStoreError("parse dsn", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "pdf-summarizer"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, common.NewStoreError("connect", err)
	}

	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		pool.Close()
		return nil, common.NewStoreError("ensure schema", err)
	}

	logger.Info("successfully connected to database")
	return &PostgresStore{pool: pool, log: logger}, nil
}

func (s *PostgresStore) UpsertJob(ctx context.Context, rec *entity.JobRecord) error {
	_, err := s.pool.Exec(ctx, pgUpsertSQL,
		rec.RunID.String(), rec.Index, rec.URL, rec.Filename,
		rec.LongSummary, rec.ShortSummary, string(rec.Status), rec.ErrorMessage,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		s.log.Error("job upsert failed", "run_id", rec.RunID, "position", rec.Index, "err", err)
		return common.NewStoreError("upsert", err)
	}
	return nil
}

func (s *PostgresStore) ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.JobRecord, error) {
	rows, err := s.pool.Query(ctx, pgListByRunSQL, runID.String())
	if err != nil {
		return nil, common.NewStoreError("list", err)
	}
	defer rows.Close()

	var out []*entity.JobRecord
	for rows.Next() {
		var rec entity.JobRecord
		var runStr, status string
		if err := rows.Scan(&runStr, &rec.Index, &rec.URL, &rec.Filename,
			&rec.LongSummary, &rec.ShortSummary, &status, &rec.ErrorMessage,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, common.NewStoreError("scan", err)
		}
		rec.RunID, _ = uuid.Parse(runStr)
		rec.Status = constants.JobStatus(status)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreError("list", err)
	}
	return out, nil
}

// HealthCheck pings the pool to catch DSN issues early.
func (s *PostgresStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
