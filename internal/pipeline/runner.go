// Package pipeline drives the per-URL state machine across a batch:
// fetch → extract → chunk → summarize → persist, with one URL's
// failure never aborting its siblings.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/summarizely/pdf-summarizer/constants"
	"github.com/summarizely/pdf-summarizer/internal/chunk"
	"github.com/summarizely/pdf-summarizer/internal/common"
	"github.com/summarizely/pdf-summarizer/internal/entity"
	"github.com/summarizely/pdf-summarizer/internal/extract"
	"github.com/summarizely/pdf-summarizer/internal/repository"
)

// ContentExtractor downloads one PDF and returns its normalized content.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (extract.Document, error)
}

// DocumentSummarizer produces the long and short summaries for one
// document's chunks.
type DocumentSummarizer interface {
	SummarizeBoth(ctx context.Context, chunks []string, longPrompt, shortPrompt string) (string, string, error)
}

// Observer receives a (index, snapshot) event after every status
// transition. At least the final snapshot per URL is delivered.
type Observer interface {
	JobUpdated(index int, rec entity.JobRecord)
}

// Options tunes one runner.
type Options struct {
	LongPrompt   string
	ShortPrompt  string
	MaxChunkSize int
	Workers      int // <=1 means sequential
	Retry        RetryPolicy
}

// Runner orchestrates the pipeline across a batch of URLs.
type Runner struct {
	extractor  ContentExtractor
	summarizer DocumentSummarizer
	store      repository.JobStore
	observer   Observer
	log        *slog.Logger
	opts       Options
}

func NewRunner(
	extractor ContentExtractor,
	summarizer DocumentSummarizer,
	store repository.JobStore,
	observer Observer,
	logger *slog.Logger,
	opts Options,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LongPrompt == "" {
		opts.LongPrompt = common.DefaultLongPrompt
	}
	if opts.ShortPrompt == "" {
		opts.ShortPrompt = common.DefaultShortPrompt
	}
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = 100000
	}
	return &Runner{
		extractor:  extractor,
		summarizer: summarizer,
		store:      store,
		observer:   observer,
		log:        logger,
		opts:       opts,
	}
}

// Run processes every record of the run and returns them in input
// order, each in a terminal state unless the run was cancelled first.
// Cancellation (flag or context) is honored between URLs only.
func (r *Runner) Run(ctx context.Context, run *BatchRun) []*entity.JobRecord {
	start := time.Now()
	records := run.Records()
	r.log.Info("batch.start", "run_id", run.ID, "urls", len(records), "workers", r.opts.Workers)

	if r.opts.Workers > 1 {
		r.runParallel(ctx, run)
	} else {
		for _, rec := range records {
			if run.Cancelled() || ctx.Err() != nil {
				r.log.Warn("batch.cancelled", "run_id", run.ID, "at_index", rec.Index)
				break
			}
			r.processOne(ctx, run, rec)
		}
	}

	succeeded, failed, pending := run.Counts()
	r.log.Info("batch.done",
		"run_id", run.ID,
		"succeeded", succeeded,
		"failed", failed,
		"pending", pending,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records
}

// runParallel fans the records out to a bounded worker pool. Each
// record is mutated by exactly one worker; output order is fixed by
// record index, so parallelism never reorders the report.
func (r *Runner) runParallel(ctx context.Context, run *BatchRun) {
	records := run.Records()
	jobs := make(chan *entity.JobRecord, len(records))

	var wg sync.WaitGroup
	for w := 0; w < r.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if run.Cancelled() || ctx.Err() != nil {
					continue // leave untouched records PENDING
				}
				r.processOne(ctx, run, rec)
			}
		}()
	}

	for _, rec := range records {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
}

// processOne walks a single record through the state machine.
// Transitions are strictly forward; entry into FAILED can happen from
// any non-terminal state and always names the failing stage.
func (r *Runner) processOne(ctx context.Context, run *BatchRun, rec *entity.JobRecord) {
	// A panic in any stage is a defect of that URL's processing only.
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("job.panic", "run_id", run.ID, "index", rec.Index, "url", rec.URL, "panic", p)
			if !rec.Status.Terminal() {
				r.fail(run, rec, "internal", fmt.Errorf("panic: %v", p))
			}
		}
	}()

	r.transition(run, rec, constants.JobStatusDownloading)

	var doc extract.Document
	err := r.opts.Retry.Do(ctx, func() error {
		var eerr error
		doc, eerr = r.extractor.Extract(ctx, rec.URL)
		return eerr
	})
	if err != nil {
		r.fail(run, rec, "extract", err)
		return
	}

	// Extraction is atomic from here; the EXTRACTING snapshot carries
	// the resolved filename before summarization begins.
	rec.Filename = doc.Filename
	rec.ExtractedText = doc.Text
	r.transition(run, rec, constants.JobStatusExtracting)

	r.transition(run, rec, constants.JobStatusSummarizing)

	chunks := chunk.Split(rec.ExtractedText, r.opts.MaxChunkSize)
	var long, short string
	err = r.opts.Retry.Do(ctx, func() error {
		var serr error
		long, short, serr = r.summarizer.SummarizeBoth(ctx, chunks, r.opts.LongPrompt, r.opts.ShortPrompt)
		return serr
	})
	if err != nil {
		r.fail(run, rec, "summarize", err)
		return
	}

	rec.LongSummary = long
	rec.ShortSummary = short
	r.transition(run, rec, constants.JobStatusSuccess)
	run.markSucceeded()
}

// transition advances the record's status, refreshes updated_at, and
// makes the snapshot externally observable: upserted to the store
// (best-effort) and delivered to the observer.
func (r *Runner) transition(run *BatchRun, rec *entity.JobRecord, status constants.JobStatus) {
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	r.persist(run, rec)
	if r.observer != nil {
		r.observer.JobUpdated(rec.Index, rec.Snapshot())
	}
}

func (r *Runner) fail(run *BatchRun, rec *entity.JobRecord, stage string, err error) {
	rec.ErrorMessage = fmt.Sprintf("%s: %v", stage, err)
	r.log.Warn("job.failed",
		"run_id", run.ID,
		"index", rec.Index,
		"url", rec.URL,
		"stage", stage,
		"error", err,
	)
	r.transition(run, rec, constants.JobStatusFailed)
	run.markFailed()
}

// persist upserts the current snapshot. A store failure degrades to
// best-effort: it is logged and the in-memory record stays
// authoritative for this run.
func (r *Runner) persist(run *BatchRun, rec *entity.JobRecord) {
	if r.store == nil {
		return
	}
	// Persistence must not be lost to a cancelled batch context.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.store.UpsertJob(ctx, rec); err != nil {
		r.log.Error("job.persist_failed", "run_id", run.ID, "index", rec.Index, "err", err)
	}
}
