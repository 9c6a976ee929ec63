package scorer

import (
	"fmt"
	"math"

	"github.com/wgdzlh/tilepred/config"
	"github.com/wgdzlh/tilepred/raster"
)

// Processor turns a raw channels-last patch into model input: impute NaNs,
// extract channels, then normalise.
type Processor struct {
	impute    *float32
	channels  []int
	mean, std []float32
}

func NewProcessor(funs config.ProcessFuns) (*Processor, error) {
	if err := funs.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{
		channels: append([]int(nil), funs.ExtractChannel.ImgChannels...),
	}
	if funs.Impute != nil {
		v := funs.Impute.Value
		p.impute = &v
	}
	if n := funs.Normalize; n != nil {
		p.mean = append([]float32(nil), n.Mean...)
		p.std = append([]float32(nil), n.Std...)
	}
	return p, nil
}

// Channels is the channel count of a processed patch.
func (p *Processor) Channels() int {
	return len(p.channels)
}

// Apply returns a new channels-last patch; the input is not modified.
func (p *Processor) Apply(in *raster.Raster) (*raster.Raster, error) {
	if in.Layout != raster.ChannelsLast {
		return nil, ErrWrongLayout
	}
	for _, ch := range p.channels {
		if ch >= in.Channels {
			return nil, fmt.Errorf("%w: channel %d of %d", ErrChannelOutOfRange, ch, in.Channels)
		}
	}
	out := raster.New(raster.ChannelsLast, len(p.channels), in.Rows, in.Cols)
	nc := len(p.channels)
	for px := 0; px < in.Rows*in.Cols; px++ {
		src := in.Data[px*in.Channels : (px+1)*in.Channels]
		dst := out.Data[px*nc : (px+1)*nc]
		for k, ch := range p.channels {
			v := src[ch]
			if p.impute != nil && math.IsNaN(float64(v)) {
				v = *p.impute
			}
			if p.mean != nil {
				v = (v - p.mean[k]) / p.std[k]
			}
			dst[k] = v
		}
	}
	return out, nil
}
