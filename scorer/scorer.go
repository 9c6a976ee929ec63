package scorer

import (
	"context"
	"fmt"

	"github.com/wgdzlh/tilepred/raster"
)

// Scorer runs one patch through preprocessing, the model and the sigmoid.
// It holds no per-call state and may be shared between goroutines as long as
// the Model may.
type Scorer struct {
	model       Model
	proc        *Processor
	outChannels int
}

func New(model Model, proc *Processor, outChannels int) *Scorer {
	return &Scorer{model: model, proc: proc, outChannels: outChannels}
}

func (s *Scorer) Model() Model {
	return s.model
}

// InChannels is the channel count of the preprocessed patches.
func (s *Scorer) InChannels() int {
	return s.proc.Channels()
}

func (s *Scorer) OutChannels() int {
	return s.outChannels
}

// Score returns the preprocessed patch and the bounded prediction patch, both
// channels-last with the spatial shape of the input. Any model error or a
// result that is not (1, out_channels, rows, cols) is returned as-is to abort
// the run.
func (s *Scorer) Score(ctx context.Context, patch *raster.Raster) (pre, pred *raster.Raster, err error) {
	if pre, err = s.proc.Apply(patch); err != nil {
		return
	}
	out, err := s.model.Score(ctx, TensorFromPatch(pre))
	if err != nil {
		return nil, nil, err
	}
	want := [4]int{1, s.outChannels, patch.Rows, patch.Cols}
	if out == nil || out.Shape != want || len(out.Data) != want[0]*want[1]*want[2]*want[3] {
		got := "nil"
		if out != nil {
			got = fmt.Sprintf("%v (%d values)", out.Shape, len(out.Data))
		}
		return nil, nil, fmt.Errorf("%w: want %v, got %s", ErrShapeMismatch, want, got)
	}
	SigmoidInPlace(out.Data)
	pred, err = PatchFromTensor(out)
	return
}
