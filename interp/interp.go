// Package interp 在离散点集的Delaunay三角网上线性插值出高程及不确定度栅格
package interp

import (
	"math"

	"github.com/fogleman/delaunay"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"
)

const (
	logTag = "SurfaceInterpolator:"

	baryEps = 1e-10
)

type Result struct {
	Elevation   *grid.Float
	Uncertainty *grid.Float
	Degenerate  bool // 点数不足、共线或三角化失败，两个栅格均为无效值
}

type xy [2]float64

// 去除重复坐标的点（保留首个）
func dedupe(pts Points) (idx []int) {
	seen := make(map[xy]bool, pts.Len())
	idx = make([]int, 0, pts.Len())
	for i := range pts.X {
		k := xy{pts.X[i], pts.Y[i]}
		if seen[k] {
			continue
		}
		seen[k] = true
		idx = append(idx, i)
	}
	return
}

func collinear(pts Points, idx []int) bool {
	a := idx[0]
	b := idx[1]
	dx, dy := pts.X[b]-pts.X[a], pts.Y[b]-pts.Y[a]
	for _, c := range idx[2:] {
		if dx*(pts.Y[c]-pts.Y[a])-dy*(pts.X[c]-pts.X[a]) != 0 {
			return false
		}
	}
	return true
}

// Interpolate 三角网外及退化情况下的像元为无效值。共享边上的像元取三角化顺序中的首个三角形
func Interpolate(pts Points, geo grid.Geo) (res Result, err error) {
	res.Elevation = grid.NewFloat(geo, grid.Nodata)
	res.Uncertainty = grid.NewFloat(geo, grid.Nodata)
	inv, err := geo.Transform.Invert()
	if err != nil {
		return
	}
	idx := dedupe(pts)
	if len(idx) < 3 || collinear(pts, idx) {
		log.Warn(logTag+"degenerate point set", zap.Int("points", pts.Len()), zap.Int("unique", len(idx)))
		res.Degenerate = true
		return
	}
	dps := make([]delaunay.Point, len(idx))
	for i, k := range idx {
		dps[i] = delaunay.Point{X: pts.X[k], Y: pts.Y[k]}
	}
	tri, e := delaunay.Triangulate(dps)
	if e != nil || len(tri.Triangles) == 0 {
		log.Warn(logTag+"triangulation failed", zap.Int("points", len(idx)), zap.Error(e))
		res.Degenerate = true
		return
	}
	// 像素空间坐标，重心坐标在仿射变换下不变
	px := make([]float64, len(idx))
	py := make([]float64, len(idx))
	for i := range dps {
		px[i], py[i] = inv.Apply(dps[i].X, dps[i].Y)
	}
	var (
		written = make([]bool, geo.Len())
		filled  int
		skipped int
	)
	for t := 0; t+2 < len(tri.Triangles); t += 3 {
		a, b, c := tri.Triangles[t], tri.Triangles[t+1], tri.Triangles[t+2]
		xa, xb, xc := px[a], px[b], px[c]
		ya, yb, yc := py[a], py[b], py[c]
		det := (yb-yc)*(xa-xc) + (xc-xb)*(ya-yc)
		if det == 0 {
			skipped++
			continue
		}
		xs, ys := []float64{xa, xb, xc}, []float64{ya, yb, yc}
		c0 := max(int(math.Ceil(floats.Min(xs)-0.5)), 0)
		c1 := min(int(math.Floor(floats.Max(xs)-0.5)), geo.Cols-1)
		r0 := max(int(math.Ceil(floats.Min(ys)-0.5)), 0)
		r1 := min(int(math.Floor(floats.Max(ys)-0.5)), geo.Rows-1)
		za, zb, zc := pts.Z[idx[a]], pts.Z[idx[b]], pts.Z[idx[c]]
		ua, ub, uc := pts.U[idx[a]], pts.U[idx[b]], pts.U[idx[c]]
		for row := r0; row <= r1; row++ {
			cy := float64(row) + 0.5
			for col := c0; col <= c1; col++ {
				i := row*geo.Cols + col
				if written[i] {
					continue
				}
				cx := float64(col) + 0.5
				l1 := ((yb-yc)*(cx-xc) + (xc-xb)*(cy-yc)) / det
				l2 := ((yc-ya)*(cx-xc) + (xa-xc)*(cy-yc)) / det
				l3 := 1 - l1 - l2
				if l1 < -baryEps || l2 < -baryEps || l3 < -baryEps {
					continue
				}
				written[i] = true
				filled++
				res.Elevation.Data[i] = finiteOr(l1*za+l2*zb+l3*zc, grid.Nodata)
				res.Uncertainty.Data[i] = finiteOr(l1*ua+l2*ub+l3*uc, grid.Nodata)
			}
		}
	}
	log.Info(logTag+"surface interpolated", zap.Int("points", len(idx)), zap.Int("triangles", len(tri.Triangles)/3),
		zap.Int("pixels", filled), zap.Int("flatTriangles", skipped))
	return
}

func finiteOr(v, alt float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return alt
	}
	return v
}
