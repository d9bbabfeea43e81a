package pipeline

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/noteclean/internal/filter"
	"github.com/MeKo-Tech/noteclean/internal/utils"
)

// Process runs the background-removal filter over img and returns the binary
// result as a grayscale image. Errors carry the failing stage
// (to_numeric, filter or from_numeric); img is never modified.
func Process(img image.Image, p filter.Params) (image.Image, error) {
	arr, err := utils.ToNumeric(img)
	if err != nil {
		return nil, stageError("to_numeric", err)
	}

	bin, err := filter.RemoveBackground(arr, p)
	if err != nil {
		return nil, stageError("filter", err)
	}

	out, err := utils.FromNumeric(bin)
	if err != nil {
		return nil, stageError("from_numeric", err)
	}
	return out, nil
}

// ProcessFile loads path and filters it. The metadata describes the decoded
// source image.
func ProcessFile(path string, p filter.Params) (cleaned image.Image, meta utils.ImageMetadata, err error) {
	original, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, utils.ImageMetadata{}, err
	}
	cleaned, err = Process(original, p)
	if err != nil {
		return nil, meta, err
	}
	return cleaned, meta, nil
}

// SaveAs writes img to path. The format follows the extension; JPEG output
// is always three-channel at utils.JPEGQuality.
func SaveAs(path string, img image.Image) error {
	if err := utils.SaveImage(path, img); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// stageError makes sure the outermost stage recorded in err is stage.
func stageError(stage string, err error) error {
	if utils.Stage(err) == stage {
		return err
	}
	return &utils.ImageProcessingError{Operation: stage, Err: err}
}
