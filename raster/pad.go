package raster

import "fmt"

// NextMultiple rounds n up to the nearest multiple of block.
func NextMultiple(n, block int) int {
	if n <= 0 {
		return 0
	}
	return (n + block - 1) / block * block
}

// Pad extends the row and column axes of r to the next multiple of block,
// keeping the content at the top-left origin and zero-filling the rest.
// A block-aligned input is returned unchanged.
func Pad(r *Raster, block int) (*Raster, error) {
	if block <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, block)
	}
	rows, cols := NextMultiple(r.Rows, block), NextMultiple(r.Cols, block)
	if rows == r.Rows && cols == r.Cols {
		return r, nil
	}
	out := New(r.Layout, r.Channels, rows, cols)
	if err := CopyRegion(out, r, 0, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// Crop keeps the top-left rows*cols extent of r; the inverse of Pad.
func Crop(r *Raster, rows, cols int) (*Raster, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNegativeShape, rows, cols)
	}
	if rows > r.Rows || cols > r.Cols {
		return nil, fmt.Errorf("%w: %dx%d from %dx%d", ErrCropTooLarge, rows, cols, r.Rows, r.Cols)
	}
	if rows == r.Rows && cols == r.Cols {
		return r, nil
	}
	return r.Region(0, 0, rows, cols)
}
