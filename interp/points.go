package interp

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/wgdzlh/nidem/contour"
	"github.com/wgdzlh/nidem/log"
)

var (
	ErrAttributeJoin = errors.New("interp: height has no uncertainty entry")
	ErrTableLength   = errors.New("interp: height/uncertainty table length differs from levels")
)

// 带高程和不确定度的离散点集
type Points struct {
	X []float64
	Y []float64
	Z []float64 // 高程
	U []float64 // 不确定度
}

func (p Points) Len() int {
	return len(p.X)
}

// 无等值线顶点时为空，插值将退化
func (p Points) Empty() bool {
	return len(p.X) == 0
}

func (p *Points) add(x, y, z, u float64) {
	p.X = append(p.X, x)
	p.Y = append(p.Y, y)
	p.Z = append(p.Z, z)
	p.U = append(p.U, u)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Assemble 将等值线顶点组装为点集：边界值的序号决定其高程，
// 不确定度按高程保留两位小数后精确匹配查表，未命中返回ErrAttributeJoin
func Assemble(set contour.Set, levels, heights, uncerts []float64) (pts Points, err error) {
	if len(heights) != len(levels) || len(uncerts) != len(levels) {
		err = fmt.Errorf("%w: %d levels, %d heights, %d uncertainties", ErrTableLength, len(levels), len(heights), len(uncerts))
		return
	}
	table := make(map[float64]float64, len(heights))
	for i, h := range heights {
		k, u := round2(h), round2(uncerts[i])
		if prev, ok := table[k]; ok && prev != u && !(math.IsNaN(prev) && math.IsNaN(u)) {
			log.Warn(logTag+"duplicate height in uncertainty table, last wins",
				zap.Float64("height", k), zap.Float64("prev", prev), zap.Float64("uncert", u))
		}
		table[k] = u
	}
	index := make(map[float64]int, len(levels))
	for i, l := range levels {
		index[l] = i
	}
	for _, level := range set.Levels() {
		i, ok := index[level]
		if !ok {
			err = fmt.Errorf("%w: level %v not in level list", ErrAttributeJoin, level)
			return
		}
		h := heights[i]
		u, ok := table[round2(h)]
		if !ok {
			err = fmt.Errorf("%w: level %v, height %v", ErrAttributeJoin, level, h)
			return
		}
		for _, l := range set.Lines(level) {
			for _, p := range l {
				pts.add(p.X, p.Y, h, u)
			}
		}
	}
	log.Debug(logTag+"point set assembled", zap.Int("points", pts.Len()))
	return
}
