// Package scorer adapts raw patches into model input, invokes the external
// patch model and bounds its raw scores with a logistic transform.
package scorer

import (
	"context"

	"github.com/wgdzlh/tilepred/config"
)

// Model is the one capability the pipeline needs from a predictive model:
// map a (1, C, H, W) tensor to a (1, K, H, W) tensor of raw scores. Each
// Model carries its own device affinity.
type Model interface {
	Score(ctx context.Context, in *Tensor) (*Tensor, error)
	Device() config.Device
}

// ModelFunc adapts a plain function to Model; it reports the CPU device.
type ModelFunc func(ctx context.Context, in *Tensor) (*Tensor, error)

func (f ModelFunc) Score(ctx context.Context, in *Tensor) (*Tensor, error) {
	return f(ctx, in)
}

func (f ModelFunc) Device() config.Device {
	return config.DeviceCPU
}
