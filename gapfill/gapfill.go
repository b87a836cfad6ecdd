// Package gapfill 用最近有效像元填补分类栅格中的小空洞
package gapfill

import (
	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"

	"go.uber.org/zap"
)

const DefaultRadius = 2

const logTag = "GapFiller:"

// Fill 对距有效像元不超过radius步8邻域膨胀（切比雪夫距离）的无效像元，
// 取欧氏距离最近的有效像元值；距离相同时取窗口内行优先的第一个。返回新栅格
func Fill(r *grid.Float, radius int) *grid.Float {
	out := r.Clone()
	if radius <= 0 {
		return out
	}
	filled := 0
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			if r.Valid(row*r.Cols + col) {
				continue
			}
			if v, ok := nearest(r, row, col, radius); ok {
				out.Set(row, col, v)
				filled++
			}
		}
	}
	log.Debug(logTag+"filled gaps", zap.Int("pixels", filled), zap.Int("radius", radius))
	return out
}

func nearest(r *grid.Float, row, col, radius int) (v float64, ok bool) {
	best := -1
	for dr := -radius; dr <= radius; dr++ {
		rr := row + dr
		if rr < 0 || rr >= r.Rows {
			continue
		}
		for dc := -radius; dc <= radius; dc++ {
			cc := col + dc
			if cc < 0 || cc >= r.Cols {
				continue
			}
			i := rr*r.Cols + cc
			if !r.Valid(i) {
				continue
			}
			if d := dr*dr + dc*dc; best < 0 || d < best {
				best = d
				v = r.Data[i]
				ok = true
			}
		}
	}
	return
}
