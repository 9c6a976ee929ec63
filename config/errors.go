package config

import "errors"

var (
	ErrInvalidBlockSize   = errors.New("block_size must be positive")
	ErrInvalidPatchSize   = errors.New("patch_size must be two positive integers")
	ErrInvalidOverlap     = errors.New("overlap must be in [0, patch size)")
	ErrUnknownDevice      = errors.New("unknown device")
	ErrInvalidWorkers     = errors.New("workers must be at least 1")
	ErrInvalidOutChannels = errors.New("out_channels must be at least 1")
	ErrMissingChannels    = errors.New("process_funs.extract_channel.img_channels is required")
	ErrInvalidChannel     = errors.New("channel index must be non-negative")
	ErrNormalizeLength    = errors.New("normalize mean/std length must match extracted channels")
	ErrZeroStd            = errors.New("normalize std must be non-zero")
)
