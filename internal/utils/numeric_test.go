package utils

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGradientGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*13) % 256)})
		}
	}
	return img
}

func TestToNumeric_Gray(t *testing.T) {
	img := newGradientGray(8, 5)

	arr, err := ToNumeric(img)
	require.NoError(t, err)
	assert.Equal(t, 1, arr.Channels)
	assert.Equal(t, 8, arr.Width)
	assert.Equal(t, 5, arr.Height)
	assert.Equal(t, img.GrayAt(3, 2).Y, arr.At(3, 2, 0))
}

func TestToNumeric_SubImageOffset(t *testing.T) {
	img := newGradientGray(10, 10)
	sub, ok := img.SubImage(image.Rect(2, 3, 6, 7)).(*image.Gray)
	require.True(t, ok)

	arr, err := ToNumeric(sub)
	require.NoError(t, err)
	assert.Equal(t, 4, arr.Width)
	assert.Equal(t, 4, arr.Height)
	assert.Equal(t, img.GrayAt(2, 3).Y, arr.At(0, 0, 0))
	assert.Equal(t, img.GrayAt(5, 6).Y, arr.At(3, 3, 0))
}

func TestToNumeric_AlphaIsDropped(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 10})
	img.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	arr, err := ToNumeric(img)
	require.NoError(t, err)
	require.Equal(t, 3, arr.Channels)
	// Color values are kept as stored; nothing is blended against a background.
	assert.Equal(t, []uint8{200, 100, 50, 1, 2, 3}, arr.Pix)
}

func TestToNumeric_Nil(t *testing.T) {
	_, err := ToNumeric(nil)
	require.Error(t, err)
	assert.Equal(t, "to_numeric", Stage(err))
}

func TestRoundTrip_SupportedModes(t *testing.T) {
	rect := image.Rect(0, 0, 4, 3)

	rgb := image.NewRGBA(rect)
	rgba := image.NewNRGBA(rect)
	pal := image.NewPaletted(rect, color.Palette{
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 255, 255, 255},
		color.RGBA{200, 30, 40, 255},
	})
	for y := range 3 {
		for x := range 4 {
			c := color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 90, A: 255}
			rgb.SetRGBA(x, y, c)
			rgba.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(50 + x*40)})
			pal.SetColorIndex(x, y, uint8((x+y)%3))
		}
	}

	tests := []struct {
		name     string
		img      image.Image
		channels int
	}{
		{"grayscale", newGradientGray(4, 3), 1},
		{"truecolor", rgb, 3},
		{"truecolor with alpha", rgba, 3},
		{"palette", pal, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := ToNumeric(tt.img)
			require.NoError(t, err)
			assert.Equal(t, tt.channels, arr.Channels)

			back, err := FromNumeric(arr)
			require.NoError(t, err)
			assert.Equal(t, tt.img.Bounds().Size(), back.Bounds().Size())

			for y := range 3 {
				for x := range 4 {
					want := color.NRGBAModel.Convert(tt.img.At(x, y)).(color.NRGBA)
					got := color.NRGBAModel.Convert(back.At(x, y)).(color.NRGBA)
					assert.Equal(t, want.R, got.R, "R at %d,%d", x, y)
					assert.Equal(t, want.G, got.G, "G at %d,%d", x, y)
					assert.Equal(t, want.B, got.B, "B at %d,%d", x, y)
					assert.Equal(t, uint8(255), got.A)
				}
			}

			if tt.channels == 1 {
				_, ok := back.(*image.Gray)
				assert.True(t, ok, "grayscale arrays come back as *image.Gray")
			}
		})
	}
}

func TestFromNumeric_UnsupportedShape(t *testing.T) {
	arr := NewArray(2, 2, 4)

	_, err := FromNumeric(arr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
	assert.Equal(t, "from_numeric", Stage(err))
}

func TestFromNumeric_BufferMismatch(t *testing.T) {
	arr := &Array{Width: 3, Height: 3, Channels: 1, Pix: make([]uint8, 4)}

	_, err := FromNumeric(arr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestToGray_Luma(t *testing.T) {
	arr := &Array{Width: 4, Height: 1, Channels: 3, Pix: []uint8{
		255, 255, 255,
		0, 0, 0,
		255, 0, 0,
		0, 255, 0,
	}}

	gray, err := ToGray(arr)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 76, 150}, gray.Pix)
}

func TestToGray_RejectsFourChannels(t *testing.T) {
	_, err := ToGray(NewArray(1, 1, 4))
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestToRGB_ExpandsGray(t *testing.T) {
	arr := &Array{Width: 2, Height: 1, Channels: 1, Pix: []uint8{0, 255}}

	rgb, err := ToRGB(arr)
	require.NoError(t, err)
	assert.Equal(t, 3, rgb.Channels)
	assert.Equal(t, []uint8{0, 0, 0, 255, 255, 255}, rgb.Pix)
	// The source is left untouched.
	assert.Equal(t, []uint8{0, 255}, arr.Pix)
}
