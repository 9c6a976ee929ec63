package tilepred

// Georef is the georeferencing carried from a source raster to its prediction:
// the coordinate reference system (WKT, or any definition GDAL accepts such
// as "EPSG:4326") and the GDAL affine geotransform
// [originX, pixelW, rowRot, originY, colRot, pixelH].
type Georef struct {
	Crs       string
	Transform [6]float64
}

// 坐标系与仿射变换均已设置
func (g Georef) Valid() bool {
	return g.Crs != "" && g.Transform != [6]float64{}
}

// 预测输出文件
type PredictFile struct {
	Infile  string `json:"infile"`  // 输入影像
	Outfile string `json:"outfile"` // 预测结果tif
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
	Bands   int    `json:"bands"`
	Wkt     string `json:"wkt"` // 结果覆盖范围
}
