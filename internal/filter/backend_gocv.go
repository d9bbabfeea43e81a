//go:build filter_gocv

package filter

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/MeKo-Tech/noteclean/internal/utils"
)

func defaultBackend() Backend { return OpenCVBackend{} }

// OpenCVBackend delegates the threshold to OpenCV's adaptiveThreshold.
// OpenCV blurs with a replicated border (aaa|abcd|ddd) where GaussianBackend
// reflects (dcb|abcd|cba), so results can differ from GaussianBackend within
// BlockSize/2 of the edge.
type OpenCVBackend struct{}

// Name implements Backend.
func (OpenCVBackend) Name() string { return "opencv" }

// Threshold implements Backend.
func (OpenCVBackend) Threshold(gray *utils.Array, p Params) (*utils.Array, error) {
	src, err := gocv.NewMatFromBytes(gray.Height, gray.Width, gocv.MatTypeCV8U, gray.Pix)
	if err != nil {
		return nil, fmt.Errorf("opencv: wrap input: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.AdaptiveThreshold(src, &dst, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary,
		p.BlockSize, float32(p.C))
	if dst.Empty() {
		return nil, fmt.Errorf("opencv: adaptive threshold produced no output")
	}

	out := utils.NewArray(gray.Width, gray.Height, 1)
	copy(out.Pix, dst.ToBytes())
	return out, nil
}
