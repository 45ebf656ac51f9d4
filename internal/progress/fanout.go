package progress

import "github.com/summarizely/pdf-summarizer/internal/entity"

// Sink matches pipeline.Observer so multiple observers can be composed
// without the pipeline knowing about fan-out.
type Sink interface {
	JobUpdated(index int, rec entity.JobRecord)
}

// Fanout delivers each event to every sink in order.
type Fanout []Sink

func (f Fanout) JobUpdated(index int, rec entity.JobRecord) {
	for _, s := range f {
		s.JobUpdated(index, rec)
	}
}
