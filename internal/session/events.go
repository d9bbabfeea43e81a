package session

import (
	"github.com/MeKo-Tech/noteclean/internal/ocr"
	"github.com/MeKo-Tech/noteclean/internal/pipeline"
)

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventOCRStarted EventKind = iota
	EventOCRDone
	EventBatchStarted
	EventBatchProgress
	EventBatchItemFailed
	EventBatchDone
)

func (k EventKind) String() string {
	switch k {
	case EventOCRStarted:
		return "ocr_started"
	case EventOCRDone:
		return "ocr_done"
	case EventBatchStarted:
		return "batch_started"
	case EventBatchProgress:
		return "batch_progress"
	case EventBatchItemFailed:
		return "batch_item_failed"
	case EventBatchDone:
		return "batch_done"
	default:
		return "unknown"
	}
}

// Event is a state change, delivered after the owner has applied it. Status
// is the status line as it reads after the change.
type Event struct {
	Kind    EventKind
	Status  string
	Current int
	Total   int
	Path    string
	OCR     *ocr.Result
	Batch   *pipeline.BatchResult
	Err     error
}

// State is a snapshot of everything a front end displays.
type State struct {
	Status        string
	ProgressValue int
	ProgressMax   int
	OCRText       string
	OCRBusy       bool
	BatchBusy     bool
	LastOCR       *ocr.Result
	LastBatch     *pipeline.BatchResult
	// BatchProgress holds failure counts, elapsed time and the estimated
	// time remaining of the current or last batch.
	BatchProgress pipeline.TrackerSnapshot
}
