package tilepred

import "errors"

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrInvalidTif       = errors.New("invalid tif")
	ErrEmptyTif         = errors.New("empty tif")
	ErrTifReadFailed    = errors.New("tif read failed")
	ErrMissingGeoref    = errors.New("missing crs or geotransform")
	ErrInvalidCrs       = errors.New("invalid crs")
	ErrNoChannels       = errors.New("raster has no channels")
	ErrNoVrtInputs      = errors.New("no rasters to build vrt")
)
