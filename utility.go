package tilepred

import (
	"fmt"
	"math"
)

// 像素坐标（列、行）转地理坐标
func PixelToWorld(gt [6]float64, col, row float64) (x, y float64) {
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return
}

// rows*cols栅格四角的外包范围 [minX, maxX, minY, maxY]
func Bounds(gt [6]float64, rows, cols int) (span [4]float64) {
	span = [4]float64{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, c := range [4][2]float64{{0, 0}, {float64(cols), 0}, {0, float64(rows)}, {float64(cols), float64(rows)}} {
		x, y := PixelToWorld(gt, c[0], c[1])
		span[0] = math.Min(span[0], x)
		span[1] = math.Max(span[1], x)
		span[2] = math.Min(span[2], y)
		span[3] = math.Max(span[3], y)
	}
	return
}

func PointsToWkt(lon1, lon2, lat1, lat2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", lon1, lon2, lat1, lat2)
}

func SpanToWkt(span [4]float64) string {
	return PointsToWkt(span[0], span[1], span[2], span[3])
}

// rows*cols栅格的覆盖范围WKT（源坐标系下）
func (g Georef) Footprint(rows, cols int) string {
	return SpanToWkt(Bounds(g.Transform, rows, cols))
}
