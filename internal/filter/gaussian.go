package filter

import (
	"math"

	"github.com/MeKo-Tech/noteclean/internal/mempool"
	"github.com/MeKo-Tech/noteclean/internal/utils"
)

// GaussianBackend is the pure Go implementation of the adaptive threshold.
type GaussianBackend struct{}

// Name implements Backend.
func (GaussianBackend) Name() string { return "gaussian" }

// Threshold implements Backend. A pixel becomes paper (255) when it is
// brighter than its rounded local Gaussian mean minus C, ink (0) otherwise.
func (GaussianBackend) Threshold(gray *utils.Array, p Params) (*utils.Array, error) {
	mean := gaussianMean(gray.Pix, gray.Width, gray.Height, p.BlockSize)
	defer mempool.PutUint8(mean)

	out := utils.NewArray(gray.Width, gray.Height, 1)
	for i, v := range gray.Pix {
		if int(v)-int(mean[i]) > -p.C {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

// gaussianSigma derives sigma from the kernel size the same way OpenCV does
// when sigma is left at zero.
func gaussianSigma(size int) float64 {
	return 0.3*((float64(size)-1)*0.5-1) + 0.8
}

// gaussianKernel returns a normalized 1D kernel of the given odd size.
func gaussianKernel(size int) []float64 {
	sigma := gaussianSigma(size)
	half := size / 2
	k := make([]float64, size)
	var sum float64
	for i := range size {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect101 maps an out-of-range index into [0, n) mirroring around the
// edge pixel without repeating it (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// gaussianMean blurs src with a separable size×size Gaussian and rounds the
// result back to 8 bits. The result comes from mempool; callers return it
// with mempool.PutUint8.
func gaussianMean(src []uint8, w, h, size int) []uint8 {
	k := gaussianKernel(size)
	half := size / 2

	tmp := mempool.GetFloat64(w * h)
	defer mempool.PutFloat64(tmp)
	for y := range h {
		row := src[y*w : (y+1)*w]
		for x := range w {
			var acc float64
			for i, kv := range k {
				acc += kv * float64(row[reflect101(x+i-half, w)])
			}
			tmp[y*w+x] = acc
		}
	}

	out := mempool.GetUint8(w * h)
	for y := range h {
		for x := range w {
			var acc float64
			for i, kv := range k {
				acc += kv * tmp[reflect101(y+i-half, h)*w+x]
			}
			out[y*w+x] = clampUint8(math.Round(acc))
		}
	}
	return out
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
