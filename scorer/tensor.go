package scorer

import (
	"fmt"

	"github.com/wgdzlh/tilepred/raster"
)

// Tensor is a dense NCHW float32 tensor, stored row-major.
type Tensor struct {
	Shape [4]int
	Data  []float32
}

func NewTensor(n, c, h, w int) *Tensor {
	return &Tensor{
		Shape: [4]int{n, c, h, w},
		Data:  make([]float32, n*c*h*w),
	}
}

func (t *Tensor) Batch() int    { return t.Shape[0] }
func (t *Tensor) Channels() int { return t.Shape[1] }
func (t *Tensor) Rows() int     { return t.Shape[2] }
func (t *Tensor) Cols() int     { return t.Shape[3] }

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.Shape)
}

// TensorFromPatch moves the channel axis first and adds a batch axis of 1.
func TensorFromPatch(p *raster.Raster) *Tensor {
	chw := p.To(raster.ChannelsFirst)
	data := chw.Data
	if chw == p {
		data = append([]float32(nil), p.Data...)
	}
	return &Tensor{
		Shape: [4]int{1, p.Channels, p.Rows, p.Cols},
		Data:  data,
	}
}

// PatchFromTensor drops the batch axis of a (1, C, H, W) tensor and returns a
// channels-last raster.
func PatchFromTensor(t *Tensor) (*raster.Raster, error) {
	if t.Batch() != 1 {
		return nil, fmt.Errorf("%w: batch %d", ErrShapeMismatch, t.Batch())
	}
	chw, err := raster.FromData(raster.ChannelsFirst, t.Channels(), t.Rows(), t.Cols(), t.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return chw.To(raster.ChannelsLast), nil
}
