// Package tiling decomposes a block-aligned raster into a grid of overlapping
// fixed-size windows and stitches per-window results back into a mosaic.
package tiling

import (
	"fmt"
)

// Params are the window dimensions and the overlap shared between adjacent
// windows along both axes.
type Params struct {
	PatchRows int
	PatchCols int
	Overlap   int
}

func (p Params) StrideRows() int { return p.PatchRows - p.Overlap }
func (p Params) StrideCols() int { return p.PatchCols - p.Overlap }

// Window is one cell of the grid: its (I, J) index and its top-left offset
// in the padded raster.
type Window struct {
	I, J int
	Y, X int
}

// Grid is the row-major window index space over a raster of Rows x Cols.
// Every window lies inside [0, Rows) x [0, Cols).
type Grid struct {
	Params
	Rows, Cols int // covered raster extent
	I, J       int // windows along rows / columns
}

// Plan builds the window grid for a rows x cols raster. Patch dimensions larger
// than the raster are clamped to it; the overlap is validated against the
// clamped patch. When the stride does not divide the extent, the last
// window's start is clamped so that it ends exactly on the raster edge.
func Plan(rows, cols int, p Params) (g Grid, err error) {
	if rows <= 0 || cols <= 0 {
		err = fmt.Errorf("%w: %dx%d", ErrEmptyRaster, rows, cols)
		return
	}
	if p.PatchRows <= 0 || p.PatchCols <= 0 {
		err = fmt.Errorf("%w: %dx%d", ErrInvalidPatchSize, p.PatchRows, p.PatchCols)
		return
	}
	p.PatchRows = min(p.PatchRows, rows)
	p.PatchCols = min(p.PatchCols, cols)
	if p.Overlap < 0 || p.Overlap >= min(p.PatchRows, p.PatchCols) {
		err = fmt.Errorf("%w: overlap %d for patch %dx%d", ErrInvalidOverlap, p.Overlap, p.PatchRows, p.PatchCols)
		return
	}
	g = Grid{
		Params: p,
		Rows:   rows,
		Cols:   cols,
		I:      windowCount(rows, p.PatchRows, p.StrideRows()),
		J:      windowCount(cols, p.PatchCols, p.StrideCols()),
	}
	return
}

// windowCount is ceil((dim - patch) / stride) + 1.
func windowCount(dim, patch, stride int) int {
	return (dim-patch+stride-1)/stride + 1
}

func windowStart(idx, dim, patch, stride int) int {
	return min(idx*stride, dim-patch)
}

func (g Grid) Len() int {
	return g.I * g.J
}

// At returns the window with grid index (i, j).
func (g Grid) At(i, j int) Window {
	return Window{
		I: i,
		J: j,
		Y: windowStart(i, g.Rows, g.PatchRows, g.StrideRows()),
		X: windowStart(j, g.Cols, g.PatchCols, g.StrideCols()),
	}
}

// Window returns the n-th window in canonical row-major order.
func (g Grid) Window(n int) Window {
	return g.At(n/g.J, n%g.J)
}

// Windows lists every window in canonical row-major order.
func (g Grid) Windows() []Window {
	ws := make([]Window, 0, g.Len())
	for i := 0; i < g.I; i++ {
		for j := 0; j < g.J; j++ {
			ws = append(ws, g.At(i, j))
		}
	}
	return ws
}

func (g Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d windows of %dx%d, overlap %d, over %dx%d)",
		g.I, g.J, g.PatchRows, g.PatchCols, g.Overlap, g.Rows, g.Cols)
}
