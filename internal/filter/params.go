package filter

import (
	"errors"
	"fmt"
)

// Default adaptive-threshold parameters.
const (
	DefaultBlockSize = 21
	DefaultC         = 10
)

var (
	// ErrInvalidBlockSize is returned when the neighborhood size is even or smaller than 3.
	ErrInvalidBlockSize = errors.New("block size must be odd and at least 3")
	// ErrInvalidImageShape is returned for arrays that are neither grayscale nor RGB.
	ErrInvalidImageShape = errors.New("image must have 1 or 3 channels")
)

// Params holds the two tunables of the adaptive threshold. The zero value is
// not usable; start from DefaultParams.
type Params struct {
	BlockSize int `json:"block_size" yaml:"block_size" mapstructure:"block_size"`
	C         int `json:"c_value" yaml:"c_value" mapstructure:"c_value"`
}

// DefaultParams returns the stock (21, 10) parameter pair.
func DefaultParams() Params {
	return Params{BlockSize: DefaultBlockSize, C: DefaultC}
}

// Validate checks the parameters before any pixel work is done.
func (p Params) Validate() error {
	if p.BlockSize < 3 || p.BlockSize%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBlockSize, p.BlockSize)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("block_size=%d c=%d", p.BlockSize, p.C)
}
