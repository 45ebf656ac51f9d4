package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/summarizely/pdf-summarizer/constants"
	"github.com/summarizely/pdf-summarizer/internal/entity"
)

// setupTestStore opens a private in-memory database per test so tests
// never see each other's rows.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	store, err := OpenSQLite(dsn, nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_UpsertAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := uuid.New()

	rec := entity.NewJobRecord(runID, 0, "https://example.com/a.pdf")
	rec.Filename = "a.pdf"
	rec.LongSummary = "a long summary"
	rec.ShortSummary = "short"
	rec.Status = constants.JobStatusSuccess
	rec.UpdatedAt = time.Now().UTC()

	if err := store.UpsertJob(ctx, rec); err != nil {
		t.Fatalf("UpsertJob() error = %v", err)
	}

	got, err := store.ListByRun(ctx, runID)
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListByRun() returned %d records, want 1", len(got))
	}
	r := got[0]
	if r.URL != rec.URL || r.Filename != rec.Filename {
		t.Errorf("round trip lost identity: got %q/%q", r.URL, r.Filename)
	}
	if r.LongSummary != rec.LongSummary || r.ShortSummary != rec.ShortSummary {
		t.Errorf("round trip lost summaries: got %q/%q", r.LongSummary, r.ShortSummary)
	}
	if r.Status != constants.JobStatusSuccess {
		t.Errorf("status = %s, want %s", r.Status, constants.JobStatusSuccess)
	}
	if !r.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("created_at = %v, want %v", r.CreatedAt, rec.CreatedAt)
	}
	if r.ExtractedText != "" {
		t.Error("extracted text must never be persisted")
	}
}

func TestSQLiteStore_UpsertIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := uuid.New()

	rec := entity.NewJobRecord(runID, 0, "https://example.com/a.pdf")
	if err := store.UpsertJob(ctx, rec); err != nil {
		t.Fatalf("first UpsertJob() error = %v", err)
	}

	rec.Status = constants.JobStatusFailed
	rec.ErrorMessage = "extract: unexpected status 404"
	rec.UpdatedAt = time.Now().UTC()
	if err := store.UpsertJob(ctx, rec); err != nil {
		t.Fatalf("second UpsertJob() error = %v", err)
	}

	got, err := store.ListByRun(ctx, runID)
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows after double upsert, want 1", len(got))
	}
	if got[0].Status != constants.JobStatusFailed {
		t.Errorf("status = %s, want %s after overwrite", got[0].Status, constants.JobStatusFailed)
	}
	if got[0].ErrorMessage != rec.ErrorMessage {
		t.Errorf("error message = %q, want %q", got[0].ErrorMessage, rec.ErrorMessage)
	}
}

func TestSQLiteStore_ListByRunOrderAndScope(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runA := uuid.New()
	runB := uuid.New()

	// Insert run A out of order plus one row for an unrelated run.
	for _, i := range []int{2, 0, 1} {
		rec := entity.NewJobRecord(runA, i, fmt.Sprintf("https://example.com/%d.pdf", i))
		if err := store.UpsertJob(ctx, rec); err != nil {
			t.Fatalf("UpsertJob(%d) error = %v", i, err)
		}
	}
	if err := store.UpsertJob(ctx, entity.NewJobRecord(runB, 0, "https://example.com/other.pdf")); err != nil {
		t.Fatalf("UpsertJob(other run) error = %v", err)
	}

	got, err := store.ListByRun(ctx, runA)
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListByRun() returned %d records, want 3", len(got))
	}
	for i, r := range got {
		if r.Index != i {
			t.Errorf("record at slot %d has position %d, want %d", i, r.Index, i)
		}
	}
}

func TestSQLiteStore_ListByRunEmpty(t *testing.T) {
	store := setupTestStore(t)
	got, err := store.ListByRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListByRun() returned %d records for unknown run, want 0", len(got))
	}
}

func TestSQLiteStore_HealthCheck(t *testing.T) {
	store := setupTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
