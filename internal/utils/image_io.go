package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// JPEGQuality is the fixed quality used when saving JPEG output.
const JPEGQuality = 90

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path        string
	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	AspectRatio float64
}

// LoadImage opens and decodes an image file, returning the image and metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		err := &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
		return nil, ImageMetadata{}, err
	}
	if !IsSupportedImage(path) {
		err := &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, ImageMetadata{}, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		err = &ImageProcessingError{Operation: "load", Err: err}
		return nil, ImageMetadata{}, err
	}
	defer func() { _ = f.Close() }()

	fi, statErr := f.Stat()
	if statErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: statErr}
	}

	img, format, decErr := image.Decode(f)
	if decErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: decErr}
	}

	b := img.Bounds()
	meta := ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	if b.Dy() > 0 {
		meta.AspectRatio = float64(b.Dx()) / float64(b.Dy())
	}

	return img, meta, nil
}

// SaveImage encodes img to path, choosing the format from the file
// extension. JPEG targets are always written as three-channel truecolor at
// JPEGQuality, since single-channel binary output would otherwise produce a
// grayscale JPEG.
func SaveImage(path string, img image.Image) error {
	if img == nil {
		return &ImageProcessingError{Operation: "encode", Err: errors.New("input image is nil")}
	}

	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return &ImageProcessingError{Operation: "encode", Err: fmt.Errorf("%w: %s", err, filepath.Ext(path))}
	}

	if format == imaging.JPEG {
		img, err = toTruecolor(img)
		if err != nil {
			return err
		}
	}

	if err := imaging.Save(img, path, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return &ImageProcessingError{Operation: "encode", Err: err}
	}
	return nil
}

func toTruecolor(img image.Image) (image.Image, error) {
	arr, err := ToNumeric(img)
	if err != nil {
		return nil, err
	}
	rgb, err := ToRGB(arr)
	if err != nil {
		return nil, err
	}
	return FromNumeric(rgb)
}
