package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	SmallSize  = ImageSize{160, 120}
	MediumSize = ImageSize{320, 240}
)

// NoteConfig describes a synthetic scanned note.
type NoteConfig struct {
	Lines []string
	Size  ImageSize
	// Paper is the background at the top-left corner; Shade darkens it
	// linearly towards the bottom-right to mimic uneven lighting.
	Paper color.Gray
	Shade uint8
	Ink   color.Gray
	// Scale enlarges the 7x13 bitmap font.
	Scale int
}

// DefaultNoteConfig returns a small two-line note on slightly shaded paper.
func DefaultNoteConfig() NoteConfig {
	return NoteConfig{
		Lines: []string{"Buy milk", "Call Anna"},
		Size:  MediumSize,
		Paper: color.Gray{Y: 235},
		Shade: 60,
		Ink:   color.Gray{Y: 40},
		Scale: 2,
	}
}

// GenerateNote renders the note as an RGBA image.
func GenerateNote(cfg NoteConfig) *image.RGBA {
	if cfg.Scale < 1 {
		cfg.Scale = 1
	}
	w, h := cfg.Size.Width, cfg.Size.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			shade := int(cfg.Shade) * (x + y) / max(1, w+h-2)
			v := uint8(max(0, int(cfg.Paper.Y)-shade))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	face := basicfont.Face7x13
	lineH := face.Metrics().Height.Ceil()
	textW, textH := 1, max(1, lineH*len(cfg.Lines)+4)
	for _, l := range cfg.Lines {
		textW = max(textW, font.MeasureString(face, l).Ceil()+4)
	}

	text := image.NewRGBA(image.Rect(0, 0, textW, textH))
	drawer := &font.Drawer{Dst: text, Src: image.NewUniform(color.White), Face: face}
	for i, l := range cfg.Lines {
		drawer.Dot = fixed.P(2, (i+1)*lineH)
		drawer.DrawString(l)
	}
	mask := imaging.Resize(text, textW*cfg.Scale, textH*cfg.Scale, imaging.NearestNeighbor)

	offset := image.Pt((w-mask.Bounds().Dx())/2, (h-mask.Bounds().Dy())/2)
	draw.DrawMask(img, mask.Bounds().Add(offset), image.NewUniform(cfg.Ink), image.Point{}, mask, image.Point{}, draw.Over)
	return img
}

// SquareOnWhite returns a white gray image with a black side×side square in
// the center.
func SquareOnWhite(size, side int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	start := (size - side) / 2
	draw.Draw(img, image.Rect(start, start, start+side, start+side), image.Black, image.Point{}, draw.Src)
	return img
}

// SaveImage writes img to path, picking the encoder from the extension.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	require.NoError(t, EnsureDir(filepath.Dir(path)), "create directory for %s", path)
	require.NoError(t, imaging.Save(img, path), "save %s", path)
}

// LoadImage decodes the image at path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err, "open %s", path)
	return img
}

// WriteNotes writes n synthetic notes named note_01.png, note_02.png, ...
// into dir and returns their paths in order.
func WriteNotes(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, 0, n)
	for i := range n {
		cfg := DefaultNoteConfig()
		cfg.Size = SmallSize
		cfg.Scale = 1
		cfg.Lines = []string{fmt.Sprintf("Note %d", i+1)}
		p := filepath.Join(dir, fmt.Sprintf("note_%02d.png", i+1))
		SaveImage(t, GenerateNote(cfg), p)
		paths = append(paths, p)
	}
	return paths
}

// CountValues returns how many pixels of a grayscale-convertible image have
// exactly value v.
func CountValues(img image.Image, v uint8) int {
	b := img.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y == v {
				n++
			}
		}
	}
	return n
}

// IsBinary reports whether every pixel of img is pure black or white.
func IsBinary(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			if g != 0 && g != 255 {
				return false
			}
		}
	}
	return true
}
