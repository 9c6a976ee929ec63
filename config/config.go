// Package config holds the validated inference configuration: tiling
// geometry, device selection, model location and the preprocessing table.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBlockSize   = 512
	DefaultOverlap     = 0
	DefaultWorkers     = 1
	DefaultOutChannels = 1
	DefaultInputName   = "input"
	DefaultOutputName  = "output"

	maxFileSize = 1 << 20
)

type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// ImputeStep replaces NaN cells with Value.
type ImputeStep struct {
	Value float32 `yaml:"value"`
}

// ExtractChannelStep selects and orders the channels fed to the model.
type ExtractChannelStep struct {
	ImgChannels []int `yaml:"img_channels"`
}

// NormalizeStep standardises each extracted channel as (x - Mean) / Std.
type NormalizeStep struct {
	Mean []float32 `yaml:"mean"`
	Std  []float32 `yaml:"std"`
}

// ProcessFuns maps preprocessing step names to their parameters. The steps
// run as impute, extract_channel, normalize whatever the file order is.
type ProcessFuns struct {
	Impute         *ImputeStep         `yaml:"impute,omitempty"`
	ExtractChannel *ExtractChannelStep `yaml:"extract_channel,omitempty"`
	Normalize      *NormalizeStep      `yaml:"normalize,omitempty"`
}

type ModelConfig struct {
	Path        string `yaml:"path"`
	InputName   string `yaml:"input_name"`
	OutputName  string `yaml:"output_name"`
	LibraryPath string `yaml:"library_path"` // onnxruntime shared library
	DeviceID    int    `yaml:"device_id"`
}

type Config struct {
	BlockSize   int         `yaml:"block_size"`
	PatchSize   []int       `yaml:"patch_size"` // [rows, cols]; defaults to the block size
	Overlap     int         `yaml:"overlap"`
	Device      Device      `yaml:"device"`
	Workers     int         `yaml:"workers"`
	OutChannels int         `yaml:"out_channels"`
	Model       ModelConfig `yaml:"model"`
	ProcessFuns ProcessFuns `yaml:"process_funs"`
}

// Default returns a configuration with every default filled in except the
// channel list, which has no sensible default.
func Default() *Config {
	c := &Config{
		BlockSize:   DefaultBlockSize,
		Overlap:     DefaultOverlap,
		Device:      DeviceCPU,
		Workers:     DefaultWorkers,
		OutChannels: DefaultOutChannels,
		Model: ModelConfig{
			InputName:  DefaultInputName,
			OutputName: DefaultOutputName,
		},
	}
	c.fillPatchSize()
	return c
}

func (c *Config) fillPatchSize() {
	if len(c.PatchSize) == 0 {
		c.PatchSize = []int{c.BlockSize, c.BlockSize}
	}
}

// Load reads a YAML configuration file over the defaults and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys,
// including unknown preprocessing steps, are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	c.PatchSize = nil
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	c.fillPatchSize()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate checks every field; a configuration that passes can be tiled and
// scored without further checks.
func (c *Config) Validate() error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, c.BlockSize)
	}
	if len(c.PatchSize) != 2 || c.PatchSize[0] <= 0 || c.PatchSize[1] <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPatchSize, c.PatchSize)
	}
	if c.Overlap < 0 || c.Overlap >= min(c.PatchSize[0], c.PatchSize[1]) {
		return fmt.Errorf("%w: overlap %d for patch %v", ErrInvalidOverlap, c.Overlap, c.PatchSize)
	}
	switch c.Device {
	case DeviceCPU, DeviceCUDA:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDevice, c.Device)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if c.OutChannels < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidOutChannels, c.OutChannels)
	}
	return c.ProcessFuns.Validate()
}

func (p *ProcessFuns) Validate() error {
	if p.ExtractChannel == nil || len(p.ExtractChannel.ImgChannels) == 0 {
		return ErrMissingChannels
	}
	for _, ch := range p.ExtractChannel.ImgChannels {
		if ch < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
		}
	}
	if n := p.Normalize; n != nil {
		want := len(p.ExtractChannel.ImgChannels)
		if len(n.Mean) != want || len(n.Std) != want {
			return fmt.Errorf("%w: mean %d, std %d, channels %d", ErrNormalizeLength, len(n.Mean), len(n.Std), want)
		}
		for i, s := range n.Std {
			if s == 0 {
				return fmt.Errorf("%w: channel %d", ErrZeroStd, p.ExtractChannel.ImgChannels[i])
			}
		}
	}
	return nil
}

// Channels is the declared list of source channel indices fed to the model.
func (c *Config) Channels() []int {
	if c.ProcessFuns.ExtractChannel == nil {
		return nil
	}
	return c.ProcessFuns.ExtractChannel.ImgChannels
}

// Patch returns the configured patch rows and columns.
func (c *Config) Patch() (rows, cols int) {
	return c.PatchSize[0], c.PatchSize[1]
}
