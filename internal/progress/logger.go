// Package progress contains pipeline.Observer implementations: a log
// observer for batch runs and a websocket hub for live UIs.
package progress

import (
	"log/slog"

	"github.com/summarizely/pdf-summarizer/internal/entity"
)

// LogObserver writes one structured log line per job transition.
type LogObserver struct {
	log *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{log: logger}
}

func (o *LogObserver) JobUpdated(index int, rec entity.JobRecord) {
	attrs := []any{
		"index", index,
		"url", rec.URL,
		"status", string(rec.Status),
	}
	if rec.ErrorMessage != "" {
		attrs = append(attrs, "error", rec.ErrorMessage)
	}
	o.log.Info("job.progress", attrs...)
}
