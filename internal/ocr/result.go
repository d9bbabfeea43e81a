package ocr

import (
	"fmt"
)

// FailureStage names where an extraction failed.
type FailureStage string

const (
	StageLanguages  FailureStage = "languages"
	StageEngineInit FailureStage = "engine_init"
	StageRecognize  FailureStage = "recognize"
	StageCanceled   FailureStage = "canceled"
)

// Failure describes why an extraction produced no text.
type Failure struct {
	Stage  FailureStage `json:"stage"`
	Reason string       `json:"reason"`
	Err    error        `json:"-"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("ocr %s: %s", f.Stage, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is the outcome of one extraction. Exactly one of Text (possibly
// empty, when the image holds no text) or Err is meaningful.
type Result struct {
	Text      string   `json:"text"`
	Languages []string `json:"languages"`
	Err       *Failure `json:"error,omitempty"`
}

// OK reports whether the extraction succeeded.
func (r Result) OK() bool { return r.Err == nil }

// NewFailure wraps err as a Failure at stage.
func NewFailure(stage FailureStage, err error) *Failure {
	return &Failure{Stage: stage, Reason: err.Error(), Err: err}
}

func failed(stage FailureStage, langs []string, err error) Result {
	return Result{Languages: langs, Err: NewFailure(stage, err)}
}
