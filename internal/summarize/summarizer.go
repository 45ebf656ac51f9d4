// Package summarize turns chunked document text into summaries via an
// llm.Provider, using map-reduce aggregation for long documents.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/summarizely/pdf-summarizer/internal/llm"
)

type Summarizer struct {
	provider llm.Provider
	log      *slog.Logger
}

func New(provider llm.Provider, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{provider: provider, log: logger}
}

// Summarize produces one summary for the document under the given
// prompt. A single chunk is one provider call. Multiple chunks are
// summarized independently under the same prompt (map), then the
// part summaries are joined and passed through one final reduction
// call with the same prompt, bounding quality degradation on very
// long documents while keeping each call inside context limits.
// Provider failures propagate unmodified; retries are the caller's.
func (s *Summarizer) Summarize(ctx context.Context, chunks []string, prompt string) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("summarize: no chunks")
	}
	if len(chunks) == 1 {
		return s.provider.Summarize(ctx, chunks[0], prompt)
	}

	start := time.Now()
	s.log.Info("summarize.mapreduce.start", "chunks", len(chunks))

	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		chunkPrompt := fmt.Sprintf("%s\n\n(This is part %d of %d of the document)", prompt, i+1, len(chunks))
		part, err := s.provider.Summarize(ctx, c, chunkPrompt)
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		parts = append(parts, fmt.Sprintf("[Part %d]\n%s", i+1, part))
	}

	combined := strings.Join(parts, "\n\n")
	reducePrompt := prompt + "\n\nPlease create a final consolidated summary from these partial summaries:"
	summary, err := s.provider.Summarize(ctx, combined, reducePrompt)
	if err != nil {
		return "", fmt.Errorf("reduce: %w", err)
	}

	s.log.Info("summarize.mapreduce.ok",
		"chunks", len(chunks),
		"summary_len", len(summary),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// SummarizeBoth runs the long and short invocations concurrently.
// They are logically independent: neither sees the other's partial
// state, and both always run to completion (or failure) on their own.
func (s *Summarizer) SummarizeBoth(ctx context.Context, chunks []string, longPrompt, shortPrompt string) (string, string, error) {
	var wg sync.WaitGroup
	var long, short string
	var lErr, shErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		long, lErr = s.Summarize(ctx, chunks, longPrompt)
	}()
	go func() {
		defer wg.Done()
		short, shErr = s.Summarize(ctx, chunks, shortPrompt)
	}()
	wg.Wait()

	if lErr != nil {
		return "", "", fmt.Errorf("long summary: %w", lErr)
	}
	if shErr != nil {
		return "", "", fmt.Errorf("short summary: %w", shErr)
	}
	return long, short, nil
}
