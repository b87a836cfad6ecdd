// Package contour 在分类栅格的潮位区间边界上提取等值线
package contour

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"go.uber.org/zap"

	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"
)

const (
	DefaultMinVertices = 2

	logTag = "ContourExtractor:"
)

var (
	ErrInvalidLevels = errors.New("contour: invalid level list")
	ErrFieldLength   = errors.New("contour: field lacks a value for a level")
)

type options struct {
	minVertices int
}

type Option func(*options)

// 折线保留所需的最少顶点数
func MinVertices(n int) Option {
	return func(o *options) {
		o.minVertices = n
	}
}

// 各边界值对应的等值线（世界坐标），仅包含有等值线的边界值
type Set struct {
	levels []float64
	lines  map[float64][]geom.LineString
}

// 升序的边界值
func (s Set) Levels() []float64 {
	return s.levels
}

func (s Set) Lines(level float64) []geom.LineString {
	return s.lines[level]
}

func (s Set) Has(level float64) bool {
	_, ok := s.lines[level]
	return ok
}

func (s Set) Empty() bool {
	return len(s.levels) == 0
}

// 全部顶点数
func (s Set) Vertices() (n int) {
	for _, ls := range s.lines {
		for _, l := range ls {
			n += len(l)
		}
	}
	return
}

func NewSet(lines map[float64][]geom.LineString) Set {
	s := Set{lines: map[float64][]geom.LineString{}}
	for level, ls := range lines {
		if len(ls) == 0 {
			continue
		}
		s.levels = append(s.levels, level)
		s.lines[level] = ls
	}
	sort.Float64s(s.levels)
	return s
}

func validateLevels(levels []float64) error {
	if len(levels) == 0 {
		return fmt.Errorf("%w: no levels", ErrInvalidLevels)
	}
	seen := make(map[float64]bool, len(levels))
	for _, l := range levels {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return fmt.Errorf("%w: non-finite level %v", ErrInvalidLevels, l)
		}
		if seen[l] {
			return fmt.Errorf("%w: duplicate level %v", ErrInvalidLevels, l)
		}
		seen[l] = true
	}
	return nil
}

// Extract 按给定边界值提取等值线。含无效值的方格不产生线段，
// 像元(row, col)以像元中心(col+0.5, row+0.5)经仿射变换到世界坐标
func Extract(levels []float64, r *grid.Float, opts ...Option) (set Set, err error) {
	if err = validateLevels(levels); err != nil {
		return
	}
	o := options{minVertices: DefaultMinVertices}
	for _, opt := range opts {
		opt(&o)
	}
	lines := make(map[float64][]geom.LineString, len(levels))
	for _, level := range levels {
		var kept []geom.LineString
		for _, pl := range assemble(segments(r, level)) {
			if ls := toWorld(r.Geo, pl); len(ls) >= o.minVertices {
				kept = append(kept, ls)
			}
		}
		log.Debug(logTag+"level traced", zap.Float64("level", level), zap.Int("lines", len(kept)))
		if len(kept) > 0 {
			lines[level] = kept
		}
	}
	set = NewSet(lines)
	log.Info(logTag+"contours extracted", zap.Int("levels", len(set.levels)), zap.Int("vertices", set.Vertices()))
	return
}

func toWorld(geo grid.Geo, pl []point) geom.LineString {
	ls := make(geom.LineString, 0, len(pl))
	for _, p := range pl {
		x, y := geo.Transform.Apply(p[1]+0.5, p[0]+0.5)
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		ls = append(ls, geom.Point{X: x, Y: y})
	}
	return ls
}
