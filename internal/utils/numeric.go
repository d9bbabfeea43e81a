package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Array is the numeric pixel representation shared by the filter and OCR
// stages. Pix is row-major and channel-interleaved (R, G, B for three
// channels), one byte per sample.
type Array struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewArray allocates a zeroed array.
func NewArray(width, height, channels int) *Array {
	return &Array{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := &Array{Width: a.Width, Height: a.Height, Channels: a.Channels, Pix: make([]uint8, len(a.Pix))}
	copy(out.Pix, a.Pix)
	return out
}

// At returns the sample at (x, y) in channel ch.
func (a *Array) At(x, y, ch int) uint8 {
	return a.Pix[(y*a.Width+x)*a.Channels+ch]
}

func (a *Array) check() error {
	if a == nil {
		return errors.New("input array is nil")
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", a.Width, a.Height)
	}
	if len(a.Pix) != a.Width*a.Height*a.Channels {
		return fmt.Errorf("pixel buffer length %d does not match %dx%dx%d",
			len(a.Pix), a.Width, a.Height, a.Channels)
	}
	return nil
}

// ToNumeric converts a decoded image into an Array. Grayscale images stay
// single-channel; every other color model (truecolor, alpha, palette, YCbCr,
// CMYK) becomes three-channel RGB. Alpha is dropped, not composited.
func ToNumeric(img image.Image) (*Array, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "to_numeric", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, &ImageProcessingError{Operation: "to_numeric", Err: errors.New("image has no pixels")}
	}
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		out := NewArray(w, h, 1)
		for y := range h {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return out, nil
	case *image.Gray16:
		out := NewArray(w, h, 1)
		for y := range h {
			for x := range w {
				out.Pix[y*w+x] = uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return out, nil
	}

	// imaging.Clone yields un-premultiplied NRGBA anchored at (0,0), so
	// discarding the alpha byte keeps the stored color values.
	nrgba := imaging.Clone(img)
	out := NewArray(w, h, 3)
	for y := range h {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := out.Pix[y*w*3 : (y+1)*w*3]
		for x := range w {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}
	return out, nil
}

// FromNumeric converts an Array back into an image: single-channel arrays
// become *image.Gray and three-channel arrays an opaque *image.NRGBA.
func FromNumeric(a *Array) (image.Image, error) {
	if err := a.check(); err != nil {
		return nil, &ImageProcessingError{Operation: "from_numeric", Err: err}
	}

	switch a.Channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, a.Width, a.Height))
		copy(img.Pix, a.Pix)
		return img, nil
	case 3:
		img := image.NewNRGBA(image.Rect(0, 0, a.Width, a.Height))
		for i, j := 0, 0; i < len(a.Pix); i, j = i+3, j+4 {
			img.Pix[j] = a.Pix[i]
			img.Pix[j+1] = a.Pix[i+1]
			img.Pix[j+2] = a.Pix[i+2]
			img.Pix[j+3] = 0xff
		}
		return img, nil
	default:
		return nil, &ImageProcessingError{
			Operation: "from_numeric",
			Err:       fmt.Errorf("%w: %d channels", ErrUnsupportedShape, a.Channels),
		}
	}
}
