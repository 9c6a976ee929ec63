// Command predict-tiffs writes a prediction GeoTIFF for every tile in a
// directory.
//
//	predict-tiffs -d $DATA_DIR/img_data -c conf/predict.yaml -m runs/model_final.onnx -o output
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/wgdzlh/tilepred"
	"github.com/wgdzlh/tilepred/config"
	"github.com/wgdzlh/tilepred/log"
	"github.com/wgdzlh/tilepred/pipeline"
	"github.com/wgdzlh/tilepred/scorer"
	"github.com/wgdzlh/tilepred/utils"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	tileDir     = flag.String("d", "", "Directory of input tiles (*.tif, *.tiff)")
	modelPath   = flag.String("m", "", "ONNX model path (overrides model.path)")
	confPath    = flag.String("c", "conf/predict.yaml", "Inference config YAML")
	outputDir   = flag.String("o", "output", "Output directory")
	workers     = flag.Int("workers", 0, "Parallel patch workers (overrides workers)")
	device      = flag.String("device", "", "cpu or cuda (overrides device)")
	channels    = flag.String("channels", "", "Comma separated channel indices (overrides extract_channel)")
	buildVRT    = flag.Bool("vrt", false, "Build "+tilepred.OUTPUT_VRT_NAME+" over the predictions")
	inputMosaic = flag.Bool("input-mosaic", false, "Also write the preprocessed input as "+tilepred.INPUT_MOSAIC_PREFIX+"<tile>.tiff")
	statsOnly   = flag.Bool("stats", false, "Print per-channel mean/std of every tile instead of predicting")
	debug       = flag.Bool("debug", false, "Debug logging")
)

func main() {
	flag.Parse()
	if *debug {
		log.SetDebug()
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error("predict-tiffs failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if *tileDir == "" {
		return fmt.Errorf("-d is required")
	}
	tifs, err := utils.GetTifsInDir(*tileDir)
	if err != nil {
		return err
	}
	g := tilepred.NewGdalToolbox()
	defer g.Close()

	if *statsOnly {
		return printStats(g, tifs)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(*outputDir, os.ModePerm); err != nil {
		return err
	}

	rows, cols := cfg.Patch()
	nc := len(cfg.Channels())
	model, err := scorer.NewONNXModel(cfg.Model, cfg.Device,
		[4]int{1, nc, rows, cols}, [4]int{1, cfg.OutChannels, rows, cols})
	if err != nil {
		return err
	}
	defer model.Close()

	p, err := pipeline.New(cfg, model)
	if err != nil {
		return err
	}

	outs := make([]string, 0, len(tifs))
	for _, tif := range tifs {
		pf, err := predictTile(ctx, g, p, tif)
		if err != nil {
			return fmt.Errorf("%s: %w", tif, err)
		}
		log.Info("predicted tile", zap.String("infile", pf.Infile), zap.String("outfile", pf.Outfile),
			zap.Int("bands", pf.Bands), zap.String("wkt", pf.Wkt))
		outs = append(outs, pf.Outfile)
	}
	if *buildVRT {
		return g.BuildVRT(filepath.Join(*outputDir, tilepred.OUTPUT_VRT_NAME), outs)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*confPath)
	if err != nil {
		return nil, err
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *device != "" {
		cfg.Device = config.Device(*device)
	}
	if *channels != "" {
		chs, err := utils.StrToInts(*channels, ",")
		if err != nil {
			return nil, fmt.Errorf("invalid -channels %q: %w", *channels, err)
		}
		cfg.ProcessFuns.ExtractChannel = &config.ExtractChannelStep{ImgChannels: chs}
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info("loaded config", zap.String("path", *confPath), zap.Int("block", cfg.BlockSize),
		zap.Ints("patch", cfg.PatchSize), zap.Int("overlap", cfg.Overlap),
		zap.String("device", string(cfg.Device)), zap.String("channels", utils.IntsToStr(cfg.Channels(), ',')))
	return cfg, nil
}

func predictTile(ctx context.Context, g *tilepred.GdalToolbox, p *pipeline.Pipeline, tif string) (pf tilepred.PredictFile, err error) {
	img, geo, err := g.ReadRaster(tif)
	if err != nil {
		return
	}
	res, err := p.Run(ctx, img)
	if err != nil {
		return
	}
	pf = tilepred.PredictFile{
		Infile:  tif,
		Outfile: utils.GetOutputPath(*outputDir, tif, ""),
		Rows:    res.Prediction.Rows,
		Cols:    res.Prediction.Cols,
		Bands:   res.Prediction.Channels,
		Wkt:     geo.Footprint(res.Prediction.Rows, res.Prediction.Cols),
	}
	if err = g.WritePrediction(pf.Outfile, res.Prediction, geo); err != nil {
		return
	}
	if *inputMosaic {
		err = g.WriteInputMosaic(utils.GetOutputPath(*outputDir, tif, tilepred.INPUT_MOSAIC_PREFIX), res.Input, geo)
	}
	return
}

type tileStats struct {
	Tile      string                `yaml:"tile"`
	Mean      []float64             `yaml:"mean"`
	Std       []float64             `yaml:"std"`
	Normalize *config.NormalizeStep `yaml:"normalize,omitempty"`
}

// 输出各tile逐通道均值与标准差；指定-channels时附带可直接写入配置的normalize表
func printStats(g *tilepred.GdalToolbox, tifs []string) error {
	chs, err := utils.StrToInts(*channels, ",")
	if err != nil {
		return fmt.Errorf("invalid -channels %q: %w", *channels, err)
	}
	all := make([]tileStats, 0, len(tifs))
	for _, tif := range tifs {
		img, _, err := g.ReadRaster(tif)
		if err != nil {
			return err
		}
		mean, std, err := scorer.ChannelStats(img)
		if err != nil {
			return fmt.Errorf("%s: %w", tif, err)
		}
		ts := tileStats{Tile: filepath.Base(tif), Mean: mean, Std: std}
		if len(chs) > 0 {
			for _, ch := range chs {
				if ch < 0 || ch >= img.Channels {
					return fmt.Errorf("%s: %w: channel %d of %d", tif, scorer.ErrChannelOutOfRange, ch, img.Channels)
				}
			}
			ts.Normalize = scorer.NormalizeStep(mean, std, chs)
		}
		all = append(all, ts)
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(all)
}
