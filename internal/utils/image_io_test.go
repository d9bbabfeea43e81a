package utils

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := h / 4; y < 3*h/4; y++ {
		for x := w / 4; x < 3*w/4; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	return img
}

func TestIsSupportedImage(t *testing.T) {
	tests := map[string]bool{
		"a.png":           true,
		"a.PNG":           true,
		"b.jpg":           true,
		"b.JPEG":          true,
		"c.bmp":           true,
		"d.tiff":          true,
		"notes.txt":       false,
		"noextension":     false,
		"archive.tiff.gz": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsSupportedImage(name), name)
	}
}

func TestSaveAndLoad_PNGKeepsGray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	require.NoError(t, SaveImage(path, binaryGray(20, 12)))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 20, meta.Width)
	assert.Equal(t, 12, meta.Height)
	assert.Greater(t, meta.SizeBytes, int64(0))

	arr, err := ToNumeric(img)
	require.NoError(t, err)
	assert.Equal(t, 1, arr.Channels)
	assert.Equal(t, uint8(255), arr.At(0, 0, 0))
	assert.Equal(t, uint8(0), arr.At(10, 6, 0))
}

func TestSaveImage_JPEGIsTruecolor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jpg")

	require.NoError(t, SaveImage(path, binaryGray(32, 32)))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", meta.Format)

	_, isGray := img.(*image.Gray)
	assert.False(t, isGray, "JPEG output must be written as three-channel color")

	arr, err := ToNumeric(img)
	require.NoError(t, err)
	assert.Equal(t, 3, arr.Channels)
}

func TestSaveImage_UnknownExtension(t *testing.T) {
	err := SaveImage(filepath.Join(t.TempDir(), "out.xyz"), binaryGray(4, 4))
	require.Error(t, err)
	assert.Equal(t, "encode", Stage(err))
}

func TestSaveImage_Nil(t *testing.T) {
	err := SaveImage(filepath.Join(t.TempDir(), "out.png"), nil)
	assert.Error(t, err)
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadImage("")
	assert.Equal(t, "load", Stage(err))

	_, _, err = LoadImage(filepath.Join(dir, "notes.txt"))
	assert.Equal(t, "load", Stage(err))

	_, _, err = LoadImage(filepath.Join(dir, "missing.png"))
	assert.Equal(t, "load", Stage(err))

	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("definitely not a png"), 0o600))
	_, _, err = LoadImage(corrupt)
	assert.Equal(t, "decode", Stage(err))
}
