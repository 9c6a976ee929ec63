// Package raster holds the dense float32 raster used across the tiling
// pipeline, plus padding and cropping to a block-aligned grid.
package raster

import "fmt"

const DefaultBlockSize = 512

// Layout is the axis order of a Raster's backing slice.
type Layout int

const (
	ChannelsFirst Layout = iota // (channel, row, column)
	ChannelsLast                // (row, column, channel)
)

func (l Layout) String() string {
	switch l {
	case ChannelsFirst:
		return "CHW"
	case ChannelsLast:
		return "HWC"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Raster is a 3-D numeric array stored row-major in Layout order.
type Raster struct {
	Channels int
	Rows     int
	Cols     int
	Layout   Layout
	Data     []float32
}

// New allocates a zero-filled raster.
func New(layout Layout, channels, rows, cols int) *Raster {
	return &Raster{
		Channels: channels,
		Rows:     rows,
		Cols:     cols,
		Layout:   layout,
		Data:     make([]float32, channels*rows*cols),
	}
}

// FromData wraps data without copying it.
func FromData(layout Layout, channels, rows, cols int, data []float32) (*Raster, error) {
	if channels < 0 || rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrNegativeShape, channels, rows, cols)
	}
	if len(data) != channels*rows*cols {
		return nil, fmt.Errorf("%w: have %d values for %dx%dx%d", ErrDataLength, len(data), channels, rows, cols)
	}
	return &Raster{Channels: channels, Rows: rows, Cols: cols, Layout: layout, Data: data}, nil
}

func (r *Raster) Index(c, y, x int) int {
	if r.Layout == ChannelsLast {
		return (y*r.Cols+x)*r.Channels + c
	}
	return (c*r.Rows+y)*r.Cols + x
}

func (r *Raster) At(c, y, x int) float32 {
	return r.Data[r.Index(c, y, x)]
}

func (r *Raster) Set(c, y, x int, v float32) {
	r.Data[r.Index(c, y, x)] = v
}

// Band returns a copy of channel c as a row-major rows*cols slice.
func (r *Raster) Band(c int) []float32 {
	out := make([]float32, r.Rows*r.Cols)
	if r.Layout == ChannelsFirst {
		copy(out, r.Data[c*r.Rows*r.Cols:(c+1)*r.Rows*r.Cols])
		return out
	}
	for i := range out {
		out[i] = r.Data[i*r.Channels+c]
	}
	return out
}

func (r *Raster) SameShape(o *Raster) bool {
	return r.Channels == o.Channels && r.Rows == o.Rows && r.Cols == o.Cols
}

func (r *Raster) Clone() *Raster {
	c := *r
	c.Data = append([]float32(nil), r.Data...)
	return &c
}

// Equal reports whether both rasters hold the same values at the same
// (channel, row, column) positions, regardless of layout.
func (r *Raster) Equal(o *Raster) bool {
	if !r.SameShape(o) {
		return false
	}
	if r.Layout == o.Layout {
		for i, v := range r.Data {
			if v != o.Data[i] {
				return false
			}
		}
		return true
	}
	for c := 0; c < r.Channels; c++ {
		for y := 0; y < r.Rows; y++ {
			for x := 0; x < r.Cols; x++ {
				if r.At(c, y, x) != o.At(c, y, x) {
					return false
				}
			}
		}
	}
	return true
}

func (r *Raster) String() string {
	return fmt.Sprintf("Raster(%s %dx%dx%d)", r.Layout, r.Channels, r.Rows, r.Cols)
}

// To returns r in the requested layout; r itself when it already matches.
func (r *Raster) To(layout Layout) *Raster {
	if r.Layout == layout {
		return r
	}
	out := New(layout, r.Channels, r.Rows, r.Cols)
	for c := 0; c < r.Channels; c++ {
		for y := 0; y < r.Rows; y++ {
			for x := 0; x < r.Cols; x++ {
				out.Data[out.Index(c, y, x)] = r.Data[r.Index(c, y, x)]
			}
		}
	}
	return out
}

// CopyRegion writes src into dst with src's origin at (y0, x0). Channel
// counts must match; the region must fit inside dst.
func CopyRegion(dst, src *Raster, y0, x0 int) error {
	if dst.Channels != src.Channels {
		return fmt.Errorf("%w: dst %d, src %d", ErrChannelMismatch, dst.Channels, src.Channels)
	}
	if y0 < 0 || x0 < 0 || y0+src.Rows > dst.Rows || x0+src.Cols > dst.Cols {
		return fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d", ErrOutOfBounds, src.Rows, src.Cols, y0, x0, dst.Rows, dst.Cols)
	}
	if dst.Layout == ChannelsLast && src.Layout == ChannelsLast {
		rowLen := src.Cols * src.Channels
		for y := 0; y < src.Rows; y++ {
			d := dst.Index(0, y0+y, x0)
			copy(dst.Data[d:d+rowLen], src.Data[y*rowLen:(y+1)*rowLen])
		}
		return nil
	}
	for c := 0; c < src.Channels; c++ {
		for y := 0; y < src.Rows; y++ {
			for x := 0; x < src.Cols; x++ {
				dst.Data[dst.Index(c, y0+y, x0+x)] = src.Data[src.Index(c, y, x)]
			}
		}
	}
	return nil
}

// Region copies the rows*cols window starting at (y0, x0) into a new raster
// with the same layout.
func (r *Raster) Region(y0, x0, rows, cols int) (*Raster, error) {
	if y0 < 0 || x0 < 0 || rows < 0 || cols < 0 || y0+rows > r.Rows || x0+cols > r.Cols {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d", ErrOutOfBounds, rows, cols, y0, x0, r.Rows, r.Cols)
	}
	out := New(r.Layout, r.Channels, rows, cols)
	if r.Layout == ChannelsLast {
		rowLen := cols * r.Channels
		for y := 0; y < rows; y++ {
			s := r.Index(0, y0+y, x0)
			copy(out.Data[y*rowLen:(y+1)*rowLen], r.Data[s:s+rowLen])
		}
		return out, nil
	}
	for c := 0; c < r.Channels; c++ {
		for y := 0; y < rows; y++ {
			s := r.Index(c, y0+y, x0)
			d := out.Index(c, y, 0)
			copy(out.Data[d:d+cols], r.Data[s:s+cols])
		}
	}
	return out, nil
}
