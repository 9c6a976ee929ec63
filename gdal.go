package tilepred

import (
	"strconv"
	"sync"

	"github.com/wgdzlh/tilepred/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[string]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	logTag string
}

// 初始化GDAL工具箱，tmpDir为可选的临时目录路径（未提供的话为输出文件所在目录）
func NewGdalToolbox(tmpDir ...string) *GdalToolbox {
	g := &GdalToolbox{
		refMap: map[string]gdal.SpatialReference{},
		logTag: "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

// 获取坐标系定义（WKT、EPSG:xxxx等）对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getCrsRef(crs string) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[crs]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.SetFromUserInput(crs); err != nil {
		log.Error(g.logTag+"set ref from crs failed", zap.String("crs", crs), zap.Error(err))
		ref.Destroy()
		err = ErrInvalidCrs
		return
	}
	g.refMap[crs] = ref
	return
}

// 将坐标系定义统一为WKT
func (g *GdalToolbox) crsToWkt(crs string) (wkt string, err error) {
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	if wkt, err = ref.ToWKT(); err != nil {
		log.Error(g.logTag+"crs to wkt failed", zap.String("crs", crs), zap.Error(err))
		err = ErrInvalidCrs
	}
	return
}

// 获取坐标系的srid，无AUTHORITY时返回0
func (g *GdalToolbox) getSrid(crs string) (srid int) {
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	rawId, ok := ref.AttrValue("AUTHORITY", 1)
	if !ok {
		return
	}
	srid, _ = strconv.Atoi(rawId)
	return
}

// 释放缓存的坐标系
func (g *GdalToolbox) Close() {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	for k, ref := range g.refMap {
		ref.Destroy()
		delete(g.refMap, k)
	}
}
