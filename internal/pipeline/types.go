package pipeline

import (
	"errors"
	"time"

	"github.com/MeKo-Tech/noteclean/internal/filter"
)

// DefaultSuffix is appended to the base name of every batch output file.
const DefaultSuffix = "_cleaned"

// OutputExt is the fixed extension of batch output files.
const OutputExt = ".png"

var (
	// ErrNoImages is returned when discovery finds nothing to process.
	ErrNoImages = errors.New("no supported image files found")
	// ErrSameDirectory signals that input and output folders coincide. It is a
	// confirmation gate, not a processing failure.
	ErrSameDirectory = errors.New("output directory is the same as the input directory")
	// ErrOutputCollision fails a batch item whose output name was already
	// produced by an earlier input, e.g. scan.png and scan.jpg.
	ErrOutputCollision = errors.New("output collides with an earlier input")
)

// BatchJob describes one folder run. Inputs are processed in the given order.
type BatchJob struct {
	Inputs    []string
	OutputDir string
	// InputRoot, when set, makes outputs mirror each input's directory
	// relative to it (used for recursive discovery).
	InputRoot string
	Params    filter.Params
	// Suffix defaults to DefaultSuffix.
	Suffix string
}

// ItemOutcome records what happened to one input.
type ItemOutcome struct {
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Stage    string        `json:"stage,omitempty"`
	Error    string        `json:"error,omitempty"`
	Format   string        `json:"format,omitempty"`
	Width    int           `json:"width,omitempty"`
	Height   int           `json:"height,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// OK reports whether the item was written.
func (o ItemOutcome) OK() bool { return o.Error == "" }

// BatchResult summarizes a batch run. Succeeded+Failed always equals the
// number of processed items, which is len(Items).
type BatchResult struct {
	OutputDir string        `json:"output_dir"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Canceled  bool          `json:"canceled"`
	Duration  time.Duration `json:"duration_ns"`
	Items     []ItemOutcome `json:"items"`
}

// Processed returns how many items were attempted.
func (r *BatchResult) Processed() int { return r.Succeeded + r.Failed }

// BatchObserver receives per-item timings, typically to feed metrics.
type BatchObserver interface {
	BatchItem(status string, d time.Duration)
}
