package tilepred

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/wgdzlh/tilepred/log"
	"github.com/wgdzlh/tilepred/raster"

	"github.com/google/uuid"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 读取Tif全部波段为float32（通道优先），并返回坐标系与仿射变换
func (g *GdalToolbox) ReadRaster(tif string) (r *raster.Raster, geo Georef, err error) {
	sds, err := gdal.Open(tif, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrInvalidTif, tif, err)
		return
	}
	defer sds.Close()
	x := sds.RasterXSize()
	y := sds.RasterYSize()
	bc := sds.RasterCount()
	if bc == 0 || x == 0 || y == 0 {
		log.Error(g.logTag+"tif is empty", zap.String("tif", tif), zap.Int("bands", bc))
		err = ErrEmptyTif
		return
	}
	log.Info(g.logTag+"start read tif", zap.String("tif", tif), zap.Int("bands", bc),
		zap.Int("width", x), zap.Int("height", y))
	r = raster.New(raster.ChannelsFirst, bc, y, x)
	plane := x * y
	for i := 0; i < bc; i++ {
		band := sds.RasterBand(i + 1)
		buf := r.Data[i*plane : (i+1)*plane]
		if err = band.IO(gdal.Read, 0, 0, x, y, buf, x, y, 0, 0); err != nil {
			log.Error(g.logTag+"read tif band failed", zap.Int("band", i), zap.Error(err))
			r = nil
			err = fmt.Errorf("%w: band %d: %v", ErrTifReadFailed, i+1, err)
			return
		}
	}
	geo = Georef{Crs: sds.Projection(), Transform: sds.GeoTransform()}
	return
}

// 预测结果写为GeoTIFF：每个通道一个Float32波段，值乘以255，沿用源影像的坐标系与仿射变换
func (g *GdalToolbox) WritePrediction(out string, r *raster.Raster, geo Georef) (err error) {
	return g.writeScaled(out, r, geo, OutputScale)
}

// 预处理后的输入镶嵌图逐通道拉伸到[0,1]后按同样方式输出
func (g *GdalToolbox) WriteInputMosaic(out string, r *raster.Raster, geo Georef) (err error) {
	return g.writeScaled(out, Squash(r), geo, OutputScale)
}

func (g *GdalToolbox) writeScaled(out string, r *raster.Raster, geo Georef, scale float32) (err error) {
	if !geo.Valid() {
		err = ErrMissingGeoref
		return
	}
	if r == nil || r.Channels == 0 {
		err = ErrNoChannels
		return
	}
	wkt, err := g.crsToWkt(geo.Crs)
	if err != nil {
		return
	}
	driver, err := gdal.GetDriverByName(GTIFF_DRIVER_NAME)
	if err != nil {
		log.Error(g.logTag+"get gtiff driver failed", zap.Error(err))
		err = ErrGdalDriverCreate
		return
	}
	tmpDir := g.tmpDir
	if tmpDir == "" {
		tmpDir = filepath.Dir(out)
	}
	tmp := filepath.Join(tmpDir, fmt.Sprintf(TMP_TIF, uuid.NewString()))
	log.Info(g.logTag+"start write tif", zap.String("out", out), zap.Int("bands", r.Channels),
		zap.Int("width", r.Cols), zap.Int("height", r.Rows), zap.Int("srid", g.getSrid(geo.Crs)))

	ods := driver.Create(tmp, r.Cols, r.Rows, r.Channels, gdal.Float32, GTiffCreateOptions)
	closed := false
	defer func() {
		if !closed {
			ods.Close()
		}
		if err != nil {
			os.Remove(tmp)
		}
	}()
	if err = ods.SetProjection(wkt); err != nil {
		return
	}
	if err = ods.SetGeoTransform(geo.Transform); err != nil {
		return
	}
	for k := 0; k < r.Channels; k++ {
		buf := r.Band(k)
		for i := range buf {
			buf[i] *= scale
		}
		band := ods.RasterBand(k + 1)
		if err = band.IO(gdal.Write, 0, 0, r.Cols, r.Rows, buf, r.Cols, r.Rows, 0, 0); err != nil {
			log.Error(g.logTag+"write tif band failed", zap.Int("band", k), zap.Error(err))
			return
		}
	}
	ods.Close()
	closed = true
	if err = os.Rename(tmp, out); err != nil {
		return
	}
	log.Info(g.logTag+"end write tif", zap.String("out", out))
	return
}

// 逐通道按最小最大值拉伸到[0,1]，常量通道输出0
func Squash(r *raster.Raster) *raster.Raster {
	out := raster.New(r.Layout, r.Channels, r.Rows, r.Cols)
	for c := 0; c < r.Channels; c++ {
		lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
		for y := 0; y < r.Rows; y++ {
			for x := 0; x < r.Cols; x++ {
				v := r.At(c, y, x)
				lo = min(lo, v)
				hi = max(hi, v)
			}
		}
		ptp := hi - lo
		for y := 0; y < r.Rows; y++ {
			for x := 0; x < r.Cols; x++ {
				if ptp > 0 {
					out.Set(c, y, x, (r.At(c, y, x)-lo)/ptp)
				}
			}
		}
	}
	return out
}

// 将多个预测结果tif拼接成一个VRT
func (g *GdalToolbox) BuildVRT(out string, tifs []string) (err error) {
	if len(tifs) == 0 {
		err = ErrNoVrtInputs
		return
	}
	log.Info(g.logTag+"build vrt", zap.String("out", out), zap.Int("tif_cnt", len(tifs)))
	ods, err := gdal.BuildVRT(out, nil, tifs, VrtOptions)
	if err != nil {
		log.Error(g.logTag+"failed to build vrt", zap.Error(err))
		return
	}
	ods.Close()
	return
}
