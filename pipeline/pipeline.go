// Package pipeline runs the straight-line tile inference:
// pad -> window -> score (parallel) -> stitch -> crop.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wgdzlh/tilepred/config"
	"github.com/wgdzlh/tilepred/log"
	"github.com/wgdzlh/tilepred/raster"
	"github.com/wgdzlh/tilepred/scorer"
	"github.com/wgdzlh/tilepred/tiling"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const logTag = "Pipeline:"

// Result holds the preprocessed-input mosaic and the prediction mosaic, both
// channels-last and cropped to the source extent.
type Result struct {
	Input      *raster.Raster
	Prediction *raster.Raster
	Grid       tiling.Grid
}

type Pipeline struct {
	cfg    *config.Config
	scorer *scorer.Scorer
}

// New validates cfg and binds it to model. Configuration errors surface here,
// before any patch is scored.
func New(cfg *config.Config, model scorer.Model) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	proc, err := scorer.NewProcessor(cfg.ProcessFuns)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:    cfg,
		scorer: scorer.New(model, proc, cfg.OutChannels),
	}, nil
}

func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Run predicts img, a channels-first raster. The first failing window aborts
// the whole run; there is no partial result.
func (p *Pipeline) Run(ctx context.Context, img *raster.Raster) (res *Result, err error) {
	runID := uuid.NewString()
	start := time.Now()
	log.Info(logTag+"start run", zap.String("run", runID), zap.Stringer("img", img),
		zap.String("device", string(p.scorer.Model().Device())))

	// Padding
	padded, err := raster.Pad(img.To(raster.ChannelsFirst), p.cfg.BlockSize)
	if err != nil {
		return
	}
	hwc := padded.To(raster.ChannelsLast)

	// Windowing
	pr, pc := p.cfg.Patch()
	grid, err := tiling.Plan(hwc.Rows, hwc.Cols, tiling.Params{PatchRows: pr, PatchCols: pc, Overlap: p.cfg.Overlap})
	if err != nil {
		return
	}
	patches, err := tiling.Extract(hwc, grid)
	if err != nil {
		return
	}
	log.Info(logTag+"windowed", zap.String("run", runID), zap.Int("padRows", hwc.Rows), zap.Int("padCols", hwc.Cols),
		zap.Int("I", grid.I), zap.Int("J", grid.J), zap.Int("patchRows", grid.PatchRows), zap.Int("patchCols", grid.PatchCols))

	// Scoring
	pres, preds, err := p.scoreAll(ctx, runID, patches, grid)
	if err != nil {
		return
	}

	// Stitching
	var inputMosaic, predMosaic *raster.Raster
	if inputMosaic, err = tiling.Stitch(pres, grid); err != nil {
		return
	}
	if predMosaic, err = tiling.Stitch(preds, grid); err != nil {
		return
	}

	// Cropping
	res = &Result{Grid: grid}
	if res.Input, err = raster.Crop(inputMosaic, img.Rows, img.Cols); err != nil {
		return nil, err
	}
	if res.Prediction, err = raster.Crop(predMosaic, img.Rows, img.Cols); err != nil {
		return nil, err
	}
	log.Info(logTag+"end run", zap.String("run", runID), zap.Stringer("prediction", res.Prediction),
		zap.Duration("elapsed", time.Since(start)))
	return
}

// scoreAll scores every window with at most cfg.Workers in flight. Results are
// slotted by window index so stitching sees canonical row-major order no
// matter which window finished first.
func (p *Pipeline) scoreAll(ctx context.Context, runID string, patches []*raster.Raster, grid tiling.Grid) (pres, preds []*raster.Raster, err error) {
	pres = make([]*raster.Raster, len(patches))
	preds = make([]*raster.Raster, len(patches))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.Workers)
	for n := range patches {
		n := n
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pre, pred, err := p.scorer.Score(ctx, patches[n])
			if err != nil {
				w := grid.Window(n)
				log.Error(logTag+"score window failed", zap.String("run", runID),
					zap.Int("i", w.I), zap.Int("j", w.J), zap.Error(err))
				return fmt.Errorf("window (%d,%d): %w", w.I, w.J, err)
			}
			pres[n], preds[n] = pre, pred
			log.Debug(logTag+"scored window", zap.String("run", runID), zap.Int("n", n))
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		pres, preds = nil, nil
	}
	return
}
