package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/summarizely/pdf-summarizer/internal/entity"
)

// JobStore is the durable side of a batch run. Upserts are keyed by
// (run_id, position): writing the same record twice overwrites in
// place, so at-least-once persistence from the runner stays idempotent.
type JobStore interface {
	UpsertJob(ctx context.Context, rec *entity.JobRecord) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.JobRecord, error)
	Close() error
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS pdf_summaries (
	run_id        TEXT      NOT NULL,
	position      INTEGER   NOT NULL,
	url           TEXT      NOT NULL,
	filename      TEXT      NOT NULL DEFAULT '',
	long_summary  TEXT      NOT NULL DEFAULT '',
	short_summary TEXT      NOT NULL DEFAULT '',
	status        TEXT      NOT NULL,
	error_message TEXT      NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

