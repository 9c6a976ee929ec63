package tiling

import "errors"

var (
	ErrEmptyRaster      = errors.New("raster has no rows or columns")
	ErrInvalidPatchSize = errors.New("patch size must be positive")
	ErrInvalidOverlap   = errors.New("overlap must be in [0, patch size)")
	ErrWrongLayout      = errors.New("raster must be channels-last")
	ErrGridMismatch     = errors.New("raster does not match grid extent")
	ErrPatchCount       = errors.New("patch count does not match grid")
	ErrPatchShape       = errors.New("patch shape does not match grid")
)
