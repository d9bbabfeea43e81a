package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Engine recognizes text in a three-channel image and returns it grouped into
// paragraphs in reading order.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]string, error)
	Close() error
}

// EngineFactory builds an engine for exactly the given languages. Languages
// arrive validated and canonical (two-letter base codes).
type EngineFactory interface {
	NewEngine(ctx context.Context, languages []string) (Engine, error)
}

// EngineFactoryFunc adapts a function to EngineFactory.
type EngineFactoryFunc func(ctx context.Context, languages []string) (Engine, error)

// NewEngine implements EngineFactory.
func (f EngineFactoryFunc) NewEngine(ctx context.Context, languages []string) (Engine, error) {
	return f(ctx, languages)
}

// EngineInitError reports that an engine could not be constructed for a
// language set. No engine is cached after this error.
type EngineInitError struct {
	Languages []string
	Err       error
}

func (e *EngineInitError) Error() string {
	return fmt.Sprintf("ocr engine init failed for [%s]: %v", strings.Join(e.Languages, ","), e.Err)
}

func (e *EngineInitError) Unwrap() error { return e.Err }
