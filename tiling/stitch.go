package tiling

import (
	"fmt"

	"github.com/wgdzlh/tilepred/raster"
)

// Extract cuts the channels-last raster r into the grid's windows, returned in
// canonical row-major order.
func Extract(r *raster.Raster, g Grid) ([]*raster.Raster, error) {
	if r.Layout != raster.ChannelsLast {
		return nil, ErrWrongLayout
	}
	if r.Rows != g.Rows || r.Cols != g.Cols {
		return nil, fmt.Errorf("%w: raster %dx%d, grid %dx%d", ErrGridMismatch, r.Rows, r.Cols, g.Rows, g.Cols)
	}
	patches := make([]*raster.Raster, 0, g.Len())
	for _, w := range g.Windows() {
		p, err := r.Region(w.Y, w.X, g.PatchRows, g.PatchCols)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// Stitch places every patch at its window offset in a grid-extent mosaic.
// Patches are written in canonical row-major order, so inside an overlap band
// the later window overwrites the earlier one; nothing is blended.
func Stitch(patches []*raster.Raster, g Grid) (*raster.Raster, error) {
	if len(patches) != g.Len() {
		return nil, fmt.Errorf("%w: have %d, grid %dx%d", ErrPatchCount, len(patches), g.I, g.J)
	}
	if len(patches) == 0 {
		return nil, ErrEmptyRaster
	}
	channels := patches[0].Channels
	out := raster.New(raster.ChannelsLast, channels, g.Rows, g.Cols)
	for n, p := range patches {
		if p.Rows != g.PatchRows || p.Cols != g.PatchCols || p.Channels != channels {
			return nil, fmt.Errorf("%w: window %d is %v", ErrPatchShape, n, p)
		}
		w := g.Window(n)
		if err := raster.CopyRegion(out, p, w.Y, w.X); err != nil {
			return nil, err
		}
	}
	return out, nil
}
