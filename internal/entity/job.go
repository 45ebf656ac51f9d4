package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/summarizely/pdf-summarizer/constants"
)

// JobRecord is the per-URL unit of pipeline state and result.
// The batch runner owns the in-memory record for the lifetime of a run;
// the store owns the durable copy after each upsert. Once a record
// reaches SUCCESS or FAILED it is never mutated again.
type JobRecord struct {
	RunID    uuid.UUID
	Index    int // position in the input URL list
	URL      string
	Filename string

	// Intermediate artifact; never persisted, required for summarization.
	ExtractedText string

	LongSummary  string
	ShortSummary string

	Status       constants.JobStatus
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJobRecord creates a PENDING record for a URL accepted into a batch.
func NewJobRecord(runID uuid.UUID, index int, url string) *JobRecord {
	now := time.Now().UTC()
	return &JobRecord{
		RunID:     runID,
		Index:     index,
		URL:       url,
		Status:    constants.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot returns a copy safe to hand to observers and the store while
// the runner keeps mutating the original.
func (j *JobRecord) Snapshot() JobRecord {
	return *j
}
