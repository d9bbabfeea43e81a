// Package filter implements the background-removal step: an adaptive
// Gaussian threshold that turns a scanned page into a black-on-white binary
// image.
package filter

import (
	"fmt"

	"github.com/MeKo-Tech/noteclean/internal/utils"
)

// Backend computes the binary threshold of a single-channel array. Inputs
// have already been validated and reduced to gray.
type Backend interface {
	Name() string
	Threshold(gray *utils.Array, p Params) (*utils.Array, error)
}

var backend = defaultBackend()

// BackendName reports which implementation RemoveBackground uses in this build.
func BackendName() string { return backend.Name() }

// RemoveBackground binarizes a using the compiled-in backend. RGB input is
// reduced to gray first. The result is a new single-channel array with the
// same dimensions whose samples are exactly 0 (ink) or 255 (paper).
func RemoveBackground(a *utils.Array, p Params) (*utils.Array, error) {
	return RemoveBackgroundWith(backend, a, p)
}

// RemoveBackgroundWith is RemoveBackground with an explicit backend.
func RemoveBackgroundWith(b Backend, a *utils.Array, p Params) (*utils.Array, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrInvalidImageShape)
	}
	if a.Channels != 1 && a.Channels != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidImageShape, a.Channels)
	}

	gray, err := utils.ToGray(a)
	if err != nil {
		return nil, err
	}
	return b.Threshold(gray, p)
}
