package scorer

import "errors"

var (
	ErrShapeMismatch     = errors.New("model tensor shape mismatch")
	ErrChannelOutOfRange = errors.New("extracted channel out of range")
	ErrWrongLayout       = errors.New("patch must be channels-last")
	ErrModelNotReady     = errors.New("model session not initialised")
	ErrMissingModelPath  = errors.New("model path is empty")
	ErrUnsupportedDevice = errors.New("unsupported device")
	ErrEmptyRaster       = errors.New("raster is empty")
)
