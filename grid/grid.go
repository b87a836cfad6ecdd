package grid

import (
	"errors"
	"math"
)

// 统一的无效值
const Nodata = -9999

var (
	ErrSingularTransform = errors.New("grid: singular affine transform")
	ErrShapeMismatch     = errors.New("grid: raster shapes differ")
)

// GDAL顺序的仿射参数：x0, dx, rx, y0, ry, dy
type Affine [6]float64

// 像素(col,row)坐标转地理坐标
func (a Affine) Apply(col, row float64) (x, y float64) {
	x = a[0] + col*a[1] + row*a[2]
	y = a[3] + col*a[4] + row*a[5]
	return
}

func (a Affine) Invert() (inv Affine, err error) {
	det := a[1]*a[5] - a[2]*a[4]
	if det == 0 || math.IsNaN(det) {
		err = ErrSingularTransform
		return
	}
	inv[1] = a[5] / det
	inv[2] = -a[2] / det
	inv[4] = -a[4] / det
	inv[5] = a[1] / det
	inv[0] = -(inv[1]*a[0] + inv[2]*a[3])
	inv[3] = -(inv[4]*a[0] + inv[5]*a[3])
	return
}

// 栅格几何：行列数、仿射变换和坐标系WKT
type Geo struct {
	Rows      int
	Cols      int
	Transform Affine
	CRS       string
}

func (g Geo) Len() int {
	return g.Rows * g.Cols
}

// 像元中心的地理坐标
func (g Geo) Center(row, col int) (x, y float64) {
	return g.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
}

func (g Geo) Same(o Geo) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols && g.Transform == o.Transform
}

// 地理范围(minX, minY, maxX, maxY)
func (g Geo) Extent() (ext [4]float64) {
	ext[0], ext[1] = math.Inf(1), math.Inf(1)
	ext[2], ext[3] = math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {float64(g.Cols), 0}, {0, float64(g.Rows)}, {float64(g.Cols), float64(g.Rows)}} {
		x, y := g.Transform.Apply(c[0], c[1])
		ext[0] = math.Min(ext[0], x)
		ext[1] = math.Min(ext[1], y)
		ext[2] = math.Max(ext[2], x)
		ext[3] = math.Max(ext[3], y)
	}
	return
}

// 瓦片：多边形ID、坐标标签及栅格几何
type Tile struct {
	ID  int
	Tag string
	Geo Geo
}
