package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/summarizely/pdf-summarizer/constants"
	"github.com/summarizely/pdf-summarizer/internal/common"
	"github.com/summarizely/pdf-summarizer/internal/entity"
	"github.com/summarizely/pdf-summarizer/internal/extract"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls map[string]int
	docs  map[string]extract.Document
	errs  map[string]error
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		calls: make(map[string]int),
		docs:  make(map[string]extract.Document),
		errs:  make(map[string]error),
	}
}

func (e *fakeExtractor) Extract(_ context.Context, url string) (extract.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls[url]++
	if err, ok := e.errs[url]; ok {
		return extract.Document{}, err
	}
	if doc, ok := e.docs[url]; ok {
		return doc, nil
	}
	return extract.Document{Filename: "doc.pdf", Text: "extracted text"}, nil
}

func (e *fakeExtractor) callsFor(url string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[url]
}

type fakeSummarizer struct {
	mu     sync.Mutex
	calls  int
	err    error
	panics bool
}

func (s *fakeSummarizer) SummarizeBoth(_ context.Context, chunks []string, _, _ string) (string, string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panics {
		panic("summarizer blew up")
	}
	if s.err != nil {
		return "", "", s.err
	}
	return "long of " + chunks[0], "short of " + chunks[0], nil
}

type fakeStore struct {
	mu      sync.Mutex
	upserts []entity.JobRecord
	err     error
}

func (s *fakeStore) UpsertJob(_ context.Context, rec *entity.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, rec.Snapshot())
	return nil
}

func (s *fakeStore) ListByRun(_ context.Context, _ uuid.UUID) ([]*entity.JobRecord, error) {
	return nil, nil
}

func (s *fakeStore) Close() error { return nil }

// lastStatusFor returns the most recently upserted status for a URL.
func (s *fakeStore) lastStatusFor(url string) constants.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last constants.JobStatus
	for _, r := range s.upserts {
		if r.URL == url {
			last = r.Status
		}
	}
	return last
}

type recordingObserver struct {
	mu     sync.Mutex
	events []entity.JobRecord
	onJob  func(rec entity.JobRecord)
}

func (o *recordingObserver) JobUpdated(_ int, rec entity.JobRecord) {
	o.mu.Lock()
	o.events = append(o.events, rec)
	o.mu.Unlock()
	if o.onJob != nil {
		o.onJob(rec)
	}
}

func (o *recordingObserver) statusesFor(url string) []constants.JobStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []constants.JobStatus
	for _, e := range o.events {
		if e.URL == url {
			out = append(out, e.Status)
		}
	}
	return out
}

func TestRun_SuccessStatusSequence(t *testing.T) {
	ext := newFakeExtractor()
	sum := &fakeSummarizer{}
	store := &fakeStore{}
	obs := &recordingObserver{}
	r := NewRunner(ext, sum, store, obs, nil, Options{})

	run := NewBatchRun([]string{"https://example.com/a.pdf"})
	records := r.Run(context.Background(), run)

	if len(records) != 1 {
		t.Fatalf("Run() returned %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Status != constants.JobStatusSuccess {
		t.Fatalf("status = %s, want %s (error: %s)", rec.Status, constants.JobStatusSuccess, rec.ErrorMessage)
	}
	if rec.LongSummary == "" || rec.ShortSummary == "" {
		t.Error("summaries not set on success")
	}
	if rec.Filename != "doc.pdf" {
		t.Errorf("filename = %q, want %q", rec.Filename, "doc.pdf")
	}

	want := []constants.JobStatus{
		constants.JobStatusDownloading,
		constants.JobStatusExtracting,
		constants.JobStatusSummarizing,
		constants.JobStatusSuccess,
	}
	got := obs.statusesFor(rec.URL)
	if len(got) != len(want) {
		t.Fatalf("observer saw %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	ext := newFakeExtractor()
	ext.errs["https://example.com/bad.pdf"] = common.NewFetchError("https://example.com/bad.pdf", "unexpected status 404", nil)
	sum := &fakeSummarizer{}
	store := &fakeStore{}
	r := NewRunner(ext, sum, store, nil, nil, Options{})

	run := NewBatchRun([]string{
		"https://example.com/bad.pdf",
		"https://example.com/good.pdf",
	})
	records := r.Run(context.Background(), run)

	if records[0].Status != constants.JobStatusFailed {
		t.Errorf("bad URL status = %s, want %s", records[0].Status, constants.JobStatusFailed)
	}
	if !strings.Contains(records[0].ErrorMessage, "extract:") {
		t.Errorf("error message %q should name the extract stage", records[0].ErrorMessage)
	}
	if !strings.Contains(records[0].ErrorMessage, "404") {
		t.Errorf("error message %q should carry the status code", records[0].ErrorMessage)
	}
	if records[1].Status != constants.JobStatusSuccess {
		t.Errorf("good URL status = %s, want %s", records[1].Status, constants.JobStatusSuccess)
	}

	succeeded, failed, pending := run.Counts()
	if succeeded != 1 || failed != 1 || pending != 0 {
		t.Errorf("Counts() = (%d, %d, %d), want (1, 1, 0)", succeeded, failed, pending)
	}
}

func TestRun_EmptyContentNotRetried(t *testing.T) {
	url := "https://example.com/scanned.pdf"
	ext := newFakeExtractor()
	ext.errs[url] = &common.EmptyContentError{Filename: "scanned.pdf"}
	r := NewRunner(ext, &fakeSummarizer{}, nil, nil, nil, Options{
		Retry: RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond},
	})

	records := r.Run(context.Background(), NewBatchRun([]string{url}))

	if records[0].Status != constants.JobStatusFailed {
		t.Errorf("status = %s, want %s", records[0].Status, constants.JobStatusFailed)
	}
	if n := ext.callsFor(url); n != 1 {
		t.Errorf("extractor called %d times, want 1 (empty content is terminal)", n)
	}
}

func TestRun_TransientFetchRetried(t *testing.T) {
	url := "https://example.com/flaky.pdf"
	ext := newFakeExtractor()
	ext.errs[url] = common.NewFetchError(url, "timeout", context.DeadlineExceeded)
	r := NewRunner(ext, &fakeSummarizer{}, nil, nil, nil, Options{
		Retry: RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond},
	})

	records := r.Run(context.Background(), NewBatchRun([]string{url}))

	if records[0].Status != constants.JobStatusFailed {
		t.Errorf("status = %s, want %s", records[0].Status, constants.JobStatusFailed)
	}
	if n := ext.callsFor(url); n != 3 {
		t.Errorf("extractor called %d times, want 3", n)
	}
}

func TestRun_CancelLeavesRemainingPending(t *testing.T) {
	urls := []string{
		"https://example.com/1.pdf",
		"https://example.com/2.pdf",
		"https://example.com/3.pdf",
	}
	run := NewBatchRun(urls)

	obs := &recordingObserver{
		onJob: func(rec entity.JobRecord) {
			if rec.Status == constants.JobStatusSuccess {
				run.Cancel()
			}
		},
	}
	r := NewRunner(newFakeExtractor(), &fakeSummarizer{}, nil, obs, nil, Options{})
	records := r.Run(context.Background(), run)

	if records[0].Status != constants.JobStatusSuccess {
		t.Errorf("first record status = %s, want %s", records[0].Status, constants.JobStatusSuccess)
	}
	for _, rec := range records[1:] {
		if rec.Status != constants.JobStatusPending {
			t.Errorf("record %d status = %s, want %s after cancel", rec.Index, rec.Status, constants.JobStatusPending)
		}
	}

	succeeded, failed, pending := run.Counts()
	if succeeded != 1 || failed != 0 || pending != 2 {
		t.Errorf("Counts() = (%d, %d, %d), want (1, 0, 2)", succeeded, failed, pending)
	}
}

func TestRun_StoreFailureDoesNotChangeOutcome(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	r := NewRunner(newFakeExtractor(), &fakeSummarizer{}, store, nil, nil, Options{})

	records := r.Run(context.Background(), NewBatchRun([]string{"https://example.com/a.pdf"}))

	if records[0].Status != constants.JobStatusSuccess {
		t.Errorf("status = %s, want %s despite store failure", records[0].Status, constants.JobStatusSuccess)
	}
}

func TestRun_ParallelPreservesOrderAndTerminates(t *testing.T) {
	ext := newFakeExtractor()
	var urls []string
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("https://example.com/%02d.pdf", i)
		urls = append(urls, u)
		if i%5 == 3 {
			ext.errs[u] = common.NewFetchError(u, "unexpected status 500", nil)
		}
	}
	store := &fakeStore{}
	r := NewRunner(ext, &fakeSummarizer{}, store, &recordingObserver{}, nil, Options{Workers: 4})

	records := r.Run(context.Background(), NewBatchRun(urls))

	if len(records) != len(urls) {
		t.Fatalf("Run() returned %d records, want %d", len(records), len(urls))
	}
	for i, rec := range records {
		if rec.URL != urls[i] {
			t.Errorf("record %d url = %q, want %q (order must match input)", i, rec.URL, urls[i])
		}
		if !rec.Status.Terminal() {
			t.Errorf("record %d status = %s, want terminal", i, rec.Status)
		}
	}

	succeeded, failed, _ := countOutcomes(records)
	if succeeded != 16 || failed != 4 {
		t.Errorf("got %d succeeded / %d failed, want 16 / 4", succeeded, failed)
	}
	for _, u := range urls {
		if store.lastStatusFor(u) == "" {
			t.Errorf("no upsert recorded for %s", u)
		}
	}
}

func countOutcomes(records []*entity.JobRecord) (succeeded, failed, pending int) {
	for _, rec := range records {
		switch rec.Status {
		case constants.JobStatusSuccess:
			succeeded++
		case constants.JobStatusFailed:
			failed++
		default:
			pending++
		}
	}
	return
}

func TestRun_PanicIsolatedToOneURL(t *testing.T) {
	sum := &fakeSummarizer{panics: true}
	r := NewRunner(newFakeExtractor(), sum, nil, nil, nil, Options{})

	records := r.Run(context.Background(), NewBatchRun([]string{"https://example.com/a.pdf"}))

	if records[0].Status != constants.JobStatusFailed {
		t.Fatalf("status = %s, want %s after panic", records[0].Status, constants.JobStatusFailed)
	}
	if !strings.Contains(records[0].ErrorMessage, "internal") {
		t.Errorf("error message %q should name the internal stage", records[0].ErrorMessage)
	}
}

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryPolicy_ZeroValueSingleAttempt(t *testing.T) {
	calls := 0
	var p RetryPolicy
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("Do() should return the last error")
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
