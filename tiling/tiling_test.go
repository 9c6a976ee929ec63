package tiling

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgdzlh/tilepred/raster"
)

func hwcRamp(channels, rows, cols int) *raster.Raster {
	r := raster.New(raster.ChannelsLast, channels, rows, cols)
	for i := range r.Data {
		r.Data[i] = float32(i + 1)
	}
	return r
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func TestPlanGridShapeLaw(t *testing.T) {
	cases := []struct {
		rows, cols int
		p          Params
	}{
		{1024, 1024, Params{512, 512, 0}},
		{1024, 1024, Params{512, 512, 64}},
		{1024, 512, Params{512, 512, 100}},
		{1536, 2048, Params{512, 512, 256}},
		{512, 512, Params{256, 128, 32}},
		{100, 60, Params{32, 32, 5}},
	}
	for _, c := range cases {
		g, err := Plan(c.rows, c.cols, c.p)
		require.NoError(t, err)
		sh, sw := g.StrideRows(), g.StrideCols()
		assert.Equal(t, ceilDiv(c.rows-g.PatchRows, sh)+1, g.I, "%v", g)
		assert.Equal(t, ceilDiv(c.cols-g.PatchCols, sw)+1, g.J, "%v", g)

		covered := make([]bool, c.rows*c.cols)
		for _, w := range g.Windows() {
			assert.GreaterOrEqual(t, w.Y, 0)
			assert.GreaterOrEqual(t, w.X, 0)
			assert.LessOrEqual(t, w.Y+g.PatchRows, c.rows, "%v window %+v", g, w)
			assert.LessOrEqual(t, w.X+g.PatchCols, c.cols, "%v window %+v", g, w)
			for y := w.Y; y < w.Y+g.PatchRows; y++ {
				for x := w.X; x < w.X+g.PatchCols; x++ {
					covered[y*c.cols+x] = true
				}
			}
		}
		for i, ok := range covered {
			if !ok {
				t.Fatalf("%v leaves pixel (%d,%d) uncovered", g, i/c.cols, i%c.cols)
			}
		}
	}
}

func TestPlanWindowOrder(t *testing.T) {
	g, err := Plan(1024, 1024, Params{512, 512, 64})
	require.NoError(t, err)
	assert.Equal(t, 3, g.I)
	assert.Equal(t, 3, g.J)
	want := []Window{
		{0, 0, 0, 0}, {0, 1, 0, 448}, {0, 2, 0, 512},
		{1, 0, 448, 0}, {1, 1, 448, 448}, {1, 2, 448, 512},
		{2, 0, 512, 0}, {2, 1, 512, 448}, {2, 2, 512, 512},
	}
	if diff := cmp.Diff(want, g.Windows()); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}
	for n, w := range g.Windows() {
		assert.Equal(t, w, g.Window(n))
	}
}

func TestPlanClampsPatch(t *testing.T) {
	g, err := Plan(512, 512, Params{1024, 1024, 0})
	require.NoError(t, err)
	assert.Equal(t, 512, g.PatchRows)
	assert.Equal(t, 512, g.PatchCols)
	assert.Equal(t, 1, g.Len())
}

func TestPlanErrors(t *testing.T) {
	_, err := Plan(0, 512, Params{512, 512, 0})
	assert.ErrorIs(t, err, ErrEmptyRaster)
	_, err = Plan(512, 512, Params{0, 512, 0})
	assert.ErrorIs(t, err, ErrInvalidPatchSize)
	_, err = Plan(512, 512, Params{512, 512, 512})
	assert.ErrorIs(t, err, ErrInvalidOverlap)
	_, err = Plan(512, 512, Params{512, 512, -1})
	assert.ErrorIs(t, err, ErrInvalidOverlap)
	// overlap is checked against the clamped patch
	_, err = Plan(64, 1024, Params{512, 512, 64})
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestExtractStitchExactInverse(t *testing.T) {
	r := hwcRamp(3, 1024, 1536)
	g, err := Plan(r.Rows, r.Cols, Params{512, 512, 0})
	require.NoError(t, err)
	patches, err := Extract(r, g)
	require.NoError(t, err)
	require.Len(t, patches, 6)
	assert.Equal(t, r.At(2, 512, 1024), patches[5].At(2, 0, 0))

	out, err := Stitch(patches, g)
	require.NoError(t, err)
	assert.Equal(t, r.Rows, out.Rows)
	assert.Equal(t, r.Cols, out.Cols)
	assert.Equal(t, r.Data, out.Data)
}

func TestExtractStitchWithOverlapRoundTrip(t *testing.T) {
	r := hwcRamp(2, 100, 60)
	g, err := Plan(r.Rows, r.Cols, Params{32, 32, 5})
	require.NoError(t, err)
	patches, err := Extract(r, g)
	require.NoError(t, err)
	out, err := Stitch(patches, g)
	require.NoError(t, err)
	assert.True(t, r.Equal(out))
}

func TestStitchLastWriterWins(t *testing.T) {
	g, err := Plan(1024, 1024, Params{512, 512, 64})
	require.NoError(t, err)
	patches := make([]*raster.Raster, g.Len())
	for n := range patches {
		p := raster.New(raster.ChannelsLast, 1, 512, 512)
		for i := range p.Data {
			p.Data[i] = float32(n + 1)
		}
		patches[n] = p
	}
	out, err := Stitch(patches, g)
	require.NoError(t, err)

	for y := 0; y < out.Rows; y++ {
		for x := 0; x < out.Cols; x++ {
			// the last row-major window covering (y, x) owns it
			want := 0
			for n, w := range g.Windows() {
				if y >= w.Y && y < w.Y+512 && x >= w.X && x < w.X+512 {
					want = n + 1
				}
			}
			if got := out.At(0, y, x); got != float32(want) {
				t.Fatalf("pixel (%d,%d) = %v, want %d", y, x, got, want)
			}
		}
	}
	// overlap band between windows 0 and 1 holds window 1, not an average
	assert.Equal(t, float32(2), out.At(0, 10, 460))
}

func TestStitchErrors(t *testing.T) {
	g, err := Plan(64, 64, Params{32, 32, 0})
	require.NoError(t, err)
	_, err = Stitch(make([]*raster.Raster, 3), g)
	assert.ErrorIs(t, err, ErrPatchCount)

	patches := []*raster.Raster{
		raster.New(raster.ChannelsLast, 1, 32, 32),
		raster.New(raster.ChannelsLast, 1, 32, 32),
		raster.New(raster.ChannelsLast, 1, 16, 32),
		raster.New(raster.ChannelsLast, 1, 32, 32),
	}
	_, err = Stitch(patches, g)
	assert.ErrorIs(t, err, ErrPatchShape)

	_, err = Extract(raster.New(raster.ChannelsFirst, 1, 64, 64), g)
	assert.ErrorIs(t, err, ErrWrongLayout)
	_, err = Extract(raster.New(raster.ChannelsLast, 1, 64, 32), g)
	assert.ErrorIs(t, err, ErrGridMismatch)
}
