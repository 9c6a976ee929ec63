package raster

import "errors"

var (
	ErrInvalidBlockSize = errors.New("block size must be positive")
	ErrNegativeShape    = errors.New("raster shape is negative")
	ErrDataLength       = errors.New("raster data length does not match shape")
	ErrChannelMismatch  = errors.New("raster channel count mismatch")
	ErrOutOfBounds      = errors.New("region out of raster bounds")
	ErrCropTooLarge     = errors.New("crop extent exceeds raster")
)
