package tilepred

const (
	GTIFF_DRIVER_NAME = "GTiff"
	FILE_EXT_TIF      = ".tif"
	FILE_EXT_TIFF     = ".tiff"
	FILE_EXT_VRT      = ".vrt"

	OUTPUT_VRT_NAME     = "output.vrt"
	INPUT_MOSAIC_PREFIX = "x_"

	// 预测值[0,1]按8位量程输出
	OutputScale = 255.0

	TMP_TIF = "tmp_%s" + FILE_EXT_TIF
)

var (
	GTiffCreateOptions = []string{"COMPRESS=LZW", "TILED=YES", "BIGTIFF=IF_SAFER"}
	VrtOptions         = []string{"-resolution", "highest", "-overwrite"}
)
