package scorer

import (
	"math"

	"github.com/wgdzlh/tilepred/config"
	"github.com/wgdzlh/tilepred/raster"

	"gonum.org/v1/gonum/stat"
)

// ChannelStats returns the mean and sample standard deviation of every
// channel of r, skipping NaN cells.
func ChannelStats(r *raster.Raster) (mean, std []float64, err error) {
	if r.Rows*r.Cols == 0 {
		err = ErrEmptyRaster
		return
	}
	mean = make([]float64, r.Channels)
	std = make([]float64, r.Channels)
	vals := make([]float64, 0, r.Rows*r.Cols)
	for c := 0; c < r.Channels; c++ {
		vals = vals[:0]
		for _, v := range r.Band(c) {
			if !math.IsNaN(float64(v)) {
				vals = append(vals, float64(v))
			}
		}
		if len(vals) == 0 {
			mean[c], std[c] = math.NaN(), math.NaN()
			continue
		}
		mean[c], std[c] = stat.MeanStdDev(vals, nil)
	}
	return
}

// NormalizeStep builds the normalize table for the given source channels from
// per-channel statistics. A zero deviation is replaced by 1.
func NormalizeStep(mean, std []float64, channels []int) *config.NormalizeStep {
	n := &config.NormalizeStep{
		Mean: make([]float32, len(channels)),
		Std:  make([]float32, len(channels)),
	}
	for i, ch := range channels {
		n.Mean[i] = float32(mean[ch])
		n.Std[i] = float32(std[ch])
		if n.Std[i] == 0 || math.IsNaN(std[ch]) {
			n.Std[i] = 1
		}
	}
	return n
}
