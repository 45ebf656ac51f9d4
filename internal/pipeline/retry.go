package pipeline

import (
	"context"
	"time"

	"github.com/summarizely/pdf-summarizer/internal/common"
)

// RetryPolicy is an injectable bounded retry-with-backoff strategy for
// the fallible stages (download, provider calls). The zero value means
// a single attempt: the components themselves never retry.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do runs fn up to MaxAttempts times, sleeping attempt*Backoff between
// tries. Empty-content failures are terminal for a URL and are never
// retried; neither is anything after the context is done.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if common.IsEmptyContent(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * p.Backoff):
		}
	}
	return err
}
