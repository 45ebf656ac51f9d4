package constants

// JobStatus is the canonical status for a summary job record.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusPending     JobStatus = "PENDING"     // accepted into a batch, not started
	JobStatusDownloading JobStatus = "DOWNLOADING" // fetching the PDF
	JobStatusExtracting  JobStatus = "EXTRACTING"  // pulling text and tables out of the PDF
	JobStatusSummarizing JobStatus = "SUMMARIZING" // chunking + provider calls in flight
	JobStatusSuccess     JobStatus = "SUCCESS"     // terminal: both summaries stored
	JobStatusFailed      JobStatus = "FAILED"      // terminal: error_message set
)

// Terminal reports whether a status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}
