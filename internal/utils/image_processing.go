package utils

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShape is returned when an array has a channel layout that
// cannot be turned back into an image or reduced to gray.
var ErrUnsupportedShape = errors.New("unsupported array shape")

// ImageProcessingError represents errors that can occur during image processing.
// Operation names the stage that failed (load, decode, to_numeric, filter, ...).
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// Stage returns the failing stage recorded in err, or "" if err does not
// carry an ImageProcessingError.
func Stage(err error) string {
	var ipe *ImageProcessingError
	if errors.As(err, &ipe) {
		return ipe.Operation
	}
	return ""
}

// Fixed-point luma weights (Q14) matching the usual RGB to gray conversion:
// 0.299 R + 0.587 G + 0.114 B.
const (
	lumaShift = 14
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaRound = 1 << (lumaShift - 1)
)

// Luma reduces one RGB triple to an 8-bit gray value.
func Luma(r, g, b uint8) uint8 {
	return uint8((int(r)*lumaR + int(g)*lumaG + int(b)*lumaB + lumaRound) >> lumaShift)
}

// ToGray returns a single-channel copy of a. Three-channel arrays are reduced
// with Luma; any other shape fails with ErrUnsupportedShape.
func ToGray(a *Array) (*Array, error) {
	if err := a.check(); err != nil {
		return nil, &ImageProcessingError{Operation: "to_gray", Err: err}
	}

	switch a.Channels {
	case 1:
		return a.Clone(), nil
	case 3:
		out := NewArray(a.Width, a.Height, 1)
		for i, j := 0, 0; i < len(out.Pix); i, j = i+1, j+3 {
			out.Pix[i] = Luma(a.Pix[j], a.Pix[j+1], a.Pix[j+2])
		}
		return out, nil
	default:
		return nil, &ImageProcessingError{
			Operation: "to_gray",
			Err:       fmt.Errorf("%w: %d channels", ErrUnsupportedShape, a.Channels),
		}
	}
}

// ToRGB returns a three-channel copy of a, replicating the gray value of
// single-channel arrays into every channel.
func ToRGB(a *Array) (*Array, error) {
	if err := a.check(); err != nil {
		return nil, &ImageProcessingError{Operation: "to_rgb", Err: err}
	}

	switch a.Channels {
	case 3:
		return a.Clone(), nil
	case 1:
		out := NewArray(a.Width, a.Height, 3)
		for i, v := range a.Pix {
			j := i * 3
			out.Pix[j], out.Pix[j+1], out.Pix[j+2] = v, v, v
		}
		return out, nil
	default:
		return nil, &ImageProcessingError{
			Operation: "to_rgb",
			Err:       fmt.Errorf("%w: %d channels", ErrUnsupportedShape, a.Channels),
		}
	}
}
