package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/summarizely/pdf-summarizer/internal/entity"
)

// BatchRun is one execution over an ordered URL list: the records, a
// cancellation flag, and outcome counters. Runs are independent; no
// state is shared across them.
type BatchRun struct {
	ID      uuid.UUID
	records []*entity.JobRecord

	cancelled atomic.Bool

	mu        sync.Mutex
	succeeded int
	failed    int
}

// NewBatchRun accepts the URL list into a run, creating one PENDING
// record per URL in input order. URLs need not be unique.
func NewBatchRun(urls []string) *BatchRun {
	runID := uuid.New()
	records := make([]*entity.JobRecord, len(urls))
	for i, u := range urls {
		records[i] = entity.NewJobRecord(runID, i, u)
	}
	return &BatchRun{ID: runID, records: records}
}

// Cancel requests a stop. The flag is honored between URLs, never
// mid-URL: records not yet started stay PENDING, so a partial run is
// reportable and resumable.
func (r *BatchRun) Cancel() {
	r.cancelled.Store(true)
}

func (r *BatchRun) Cancelled() bool {
	return r.cancelled.Load()
}

// Records returns the run's records in input order. Every input URL
// appears exactly once regardless of outcome.
func (r *BatchRun) Records() []*entity.JobRecord {
	return r.records
}

// Counts reports the current progress tally.
func (r *BatchRun) Counts() (succeeded, failed, pending int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.succeeded, r.failed, len(r.records) - r.succeeded - r.failed
}

func (r *BatchRun) markSucceeded() {
	r.mu.Lock()
	r.succeeded++
	r.mu.Unlock()
}

func (r *BatchRun) markFailed() {
	r.mu.Lock()
	r.failed++
	r.mu.Unlock()
}
