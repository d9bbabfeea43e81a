// Package ocr wraps a text-recognition engine behind a Gateway that validates
// the requested languages, keeps a single cached engine keyed by language set
// and returns tagged results instead of error strings.
//
// The engine itself is supplied by an EngineFactory; the Tesseract-backed
// factory lives in the tesseract subpackage.
package ocr
