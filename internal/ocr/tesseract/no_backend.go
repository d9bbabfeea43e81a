//go:build notesseract

package tesseract

import (
	"context"

	"github.com/MeKo-Tech/noteclean/internal/ocr"
)

// Factory is the stub used when Tesseract is not linked.
type Factory struct{}

// NewFactory returns the stub factory.
func NewFactory(Options) *Factory { return &Factory{} }

// Available reports whether this build links a real backend.
func Available() bool { return false }

// NewEngine always fails with ErrNoBackend.
func (f *Factory) NewEngine(context.Context, []string) (ocr.Engine, error) {
	return nil, ErrNoBackend
}
