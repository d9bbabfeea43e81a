// Package tesseract provides an ocr.EngineFactory backed by Tesseract through
// gosseract. It needs libtesseract at build time; build with -tags notesseract
// to link a stub that reports ErrNoBackend instead.
package tesseract

import "errors"

// ErrNoBackend is returned by the stub factory.
var ErrNoBackend = errors.New("tesseract: no OCR backend linked; rebuild without -tags notesseract")

// Options configures the Tesseract client.
type Options struct {
	// TessdataPrefix overrides where traineddata files are looked up.
	TessdataPrefix string
}
