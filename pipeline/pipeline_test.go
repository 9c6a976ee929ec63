package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/floats"

	"github.com/wgdzlh/tilepred/config"
	"github.com/wgdzlh/tilepred/log"
	"github.com/wgdzlh/tilepred/raster"
	"github.com/wgdzlh/tilepred/scorer"
)

func testConfig(overlap, workers int) *config.Config {
	c := config.Default()
	c.Overlap = overlap
	c.Workers = workers
	c.ProcessFuns.ExtractChannel = &config.ExtractChannelStep{ImgChannels: []int{0, 1, 2}}
	return c
}

// pixelMean is the per-pixel channel mean of an NCHW tensor, broadcast to a
// single output channel.
func pixelMean(in *scorer.Tensor) *scorer.Tensor {
	out := scorer.NewTensor(1, 1, in.Rows(), in.Cols())
	plane := in.Rows() * in.Cols()
	vals := make([]float64, in.Channels())
	for i := 0; i < plane; i++ {
		for c := range vals {
			vals[c] = float64(in.Data[c*plane+i])
		}
		out.Data[i] = float32(floats.Sum(vals) / float64(len(vals)))
	}
	return out
}

var meanModel = scorer.ModelFunc(func(_ context.Context, in *scorer.Tensor) (*scorer.Tensor, error) {
	return pixelMean(in), nil
})

// source is a 3-channel CHW raster with a smooth, non-constant pattern.
func source(rows, cols int) *raster.Raster {
	r := raster.New(raster.ChannelsFirst, 3, rows, cols)
	for c := 0; c < 3; c++ {
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				r.Set(c, y, x, float32((y*7+x*3+c*11)%97)/97-0.5)
			}
		}
	}
	return r
}

// direct runs the mean model on the whole raster without tiling.
func direct(t *testing.T, img *raster.Raster) *raster.Raster {
	out := pixelMean(scorer.TensorFromPatch(img.To(raster.ChannelsLast)))
	scorer.SigmoidInPlace(out.Data)
	pred, err := scorer.PatchFromTensor(out)
	require.NoError(t, err)
	return pred
}

func TestRunEndToEnd(t *testing.T) {
	log.SetLogger(zaptest.NewLogger(t))
	defer log.SetLogger(nil)

	img := source(600, 600)
	p, err := New(testConfig(0, 1), meanModel)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, 1024, res.Grid.Rows)
	assert.Equal(t, 1024, res.Grid.Cols)
	assert.Equal(t, 2, res.Grid.I)
	assert.Equal(t, 2, res.Grid.J)

	assert.Equal(t, 600, res.Prediction.Rows)
	assert.Equal(t, 600, res.Prediction.Cols)
	assert.Equal(t, 1, res.Prediction.Channels)
	assert.True(t, direct(t, img).Equal(res.Prediction))

	// the input mosaic is the preprocessed source, cropped back
	assert.True(t, img.Equal(res.Input))
}

func TestRunOverlapLastWriterWins(t *testing.T) {
	img := source(600, 600)
	var calls atomic.Int32
	// each window scores a constant equal to its call rank in row-major order,
	// recovered from the first pixel of the patch
	model := scorer.ModelFunc(func(_ context.Context, in *scorer.Tensor) (*scorer.Tensor, error) {
		calls.Add(1)
		out := scorer.NewTensor(1, 1, in.Rows(), in.Cols())
		v := in.Data[0]
		for i := range out.Data {
			out.Data[i] = v
		}
		return out, nil
	})
	// mark each window's origin so the model can tell them apart
	c := testConfig(64, 1)
	p, err := New(c, model)
	require.NoError(t, err)

	origins := map[[2]int]float32{}
	marked := img.Clone()
	for n, o := range [][2]int{{0, 0}, {0, 448}, {448, 0}, {448, 448}} {
		v := float32(10 * (n + 1))
		marked.Set(0, o[0], o[1], v)
		origins[o] = v
	}
	res, err := p.Run(context.Background(), marked)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Grid.I)
	assert.Equal(t, 3, res.Grid.J)
	assert.EqualValues(t, 9, calls.Load())
	assert.Equal(t, 600, res.Prediction.Rows)
	assert.Equal(t, 600, res.Prediction.Cols)

	// rows/cols 448..511 are shared by windows starting at 0 and 448: the
	// later window (origin 448) owns them, no averaging
	assert.Equal(t, scorer.Sigmoid(origins[[2]int{448, 448}]), res.Prediction.At(0, 500, 500))
	assert.Equal(t, scorer.Sigmoid(origins[[2]int{0, 448}]), res.Prediction.At(0, 100, 480))
	assert.Equal(t, scorer.Sigmoid(origins[[2]int{448, 0}]), res.Prediction.At(0, 480, 100))
	assert.Equal(t, scorer.Sigmoid(origins[[2]int{0, 0}]), res.Prediction.At(0, 447, 447))
	for _, v := range res.Prediction.Data {
		require.True(t, v > 0 && v < 1)
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	img := source(700, 1100)
	seq, err := New(testConfig(32, 1), meanModel)
	require.NoError(t, err)
	par, err := New(testConfig(32, 8), meanModel)
	require.NoError(t, err)

	want, err := seq.Run(context.Background(), img)
	require.NoError(t, err)
	got, err := par.Run(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, want.Prediction.Data, got.Prediction.Data)
	assert.Equal(t, want.Input.Data, got.Input.Data)
	assert.True(t, direct(t, img).Equal(got.Prediction))
}

func TestRunScoringErrorAborts(t *testing.T) {
	boom := errors.New("accelerator fault")
	var calls atomic.Int32
	model := scorer.ModelFunc(func(_ context.Context, in *scorer.Tensor) (*scorer.Tensor, error) {
		if calls.Add(1) == 2 {
			return nil, boom
		}
		return pixelMean(in), nil
	})
	p, err := New(testConfig(0, 1), model)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), source(600, 600))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	// single worker: nothing is scored after the failing window
	assert.EqualValues(t, 2, calls.Load())
}

func TestRunShapeMismatchAborts(t *testing.T) {
	model := scorer.ModelFunc(func(_ context.Context, in *scorer.Tensor) (*scorer.Tensor, error) {
		return scorer.NewTensor(1, 2, in.Rows(), in.Cols()), nil
	})
	p, err := New(testConfig(0, 2), model)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), source(64, 64))
	assert.ErrorIs(t, err, scorer.ErrShapeMismatch)
}

func TestRunChannelOutOfRange(t *testing.T) {
	p, err := New(testConfig(0, 1), meanModel)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), raster.New(raster.ChannelsFirst, 2, 10, 10))
	assert.ErrorIs(t, err, scorer.ErrChannelOutOfRange)
}

func TestNewRejectsBadConfig(t *testing.T) {
	c := testConfig(512, 1)
	_, err := New(c, meanModel)
	assert.ErrorIs(t, err, config.ErrInvalidOverlap)

	c = testConfig(0, 1)
	c.ProcessFuns.ExtractChannel = nil
	_, err = New(c, meanModel)
	assert.ErrorIs(t, err, config.ErrMissingChannels)

	c = testConfig(0, 1)
	c.BlockSize = 0
	_, err = New(c, meanModel)
	assert.ErrorIs(t, err, config.ErrInvalidBlockSize)
}

func TestRunCanceled(t *testing.T) {
	p, err := New(testConfig(0, 1), meanModel)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, source(32, 32))
	assert.ErrorIs(t, err, context.Canceled)
}
