// Package mask 合成地形、水深和置信度掩膜，并据此生成过滤后的产品
package mask

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"
)

const logTag = "MaskCompositor:"

var (
	ErrShapeMismatch = errors.New("mask: raster shape mismatch")
)

// 掩膜类别，取值越大优先级越高
type Category uint8

const (
	Unmasked Category = iota
	Terrestrial
	Bathymetric
	LowConfidence
)

func (c Category) String() string {
	switch c {
	case Unmasked:
		return "unmasked"
	case Terrestrial:
		return "terrestrial"
	case Bathymetric:
		return "bathymetric"
	case LowConfidence:
		return "low_confidence"
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// 输出栅格中的编码，未掩膜为无效值
func (c Category) Code() int16 {
	if c == Unmasked {
		return grid.Nodata
	}
	return int16(c)
}

// 多个标记同时成立时取优先级最高者
func Highest(cs ...Category) (top Category) {
	for _, c := range cs {
		if c > top {
			top = c
		}
	}
	return
}

type Thresholds struct {
	MaxElevation  float64 `toml:"max_elevation"`  // 高于此值视为陆地
	MinDepth      float64 `toml:"min_depth"`      // 所有水深源均低于此值视为深水
	MaxConfidence float64 `toml:"max_confidence"` // ITEM置信度（标准差）高于此值视为低置信
}

func DefaultThresholds() Thresholds {
	return Thresholds{MaxElevation: 25, MinDepth: -25, MaxConfidence: 0.25}
}

type Mask struct {
	grid.Geo
	Data []Category
}

func (m *Mask) Masked(i int) bool {
	return m.Data[i] != Unmasked
}

func (m *Mask) Int16() *grid.Int16 {
	out := grid.NewInt16(m.Geo, grid.Nodata)
	for i, c := range m.Data {
		out.Data[i] = c.Code()
	}
	return out
}

// 各类别像元数
func (m *Mask) Counts() (counts [4]int) {
	for _, c := range m.Data {
		counts[c]++
	}
	return
}

func checkShape(geo grid.Geo, name string, o grid.Geo) error {
	if !geo.Same(o) {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrShapeMismatch, name, o.Rows, o.Cols, geo.Rows, geo.Cols)
	}
	return nil
}

// Composite 逐像元合成掩膜。任一源为无效值时该源不标记；无水深源时不产生深水标记
func Composite(elev *grid.Float, bathy []*grid.Float, conf *grid.Float, th Thresholds) (m *Mask, err error) {
	geo := elev.Geo
	for i, b := range bathy {
		if err = checkShape(geo, fmt.Sprintf("bathymetry[%d]", i), b.Geo); err != nil {
			return
		}
	}
	if conf != nil {
		if err = checkShape(geo, "confidence", conf.Geo); err != nil {
			return
		}
	}
	m = &Mask{Geo: geo, Data: make([]Category, geo.Len())}
	for i := range m.Data {
		var terr, deep, low Category
		if elev.Valid(i) && elev.Data[i] > th.MaxElevation {
			terr = Terrestrial
		}
		if len(bathy) > 0 {
			deep = Bathymetric
			for _, b := range bathy {
				if !b.Valid(i) || !(b.Data[i] < th.MinDepth) {
					deep = Unmasked
					break
				}
			}
		}
		if conf != nil && conf.Valid(i) && conf.Data[i] > th.MaxConfidence {
			low = LowConfidence
		}
		m.Data[i] = Highest(terr, deep, low)
	}
	counts := m.Counts()
	log.Info(logTag+"mask composed", zap.Int("terrestrial", counts[Terrestrial]),
		zap.Int("bathymetric", counts[Bathymetric]), zap.Int("lowConfidence", counts[LowConfidence]))
	return
}

// ValidExtent 填补前分类值严格位于(0, 9)内的像元
func ValidExtent(class *grid.Float) []bool {
	ext := make([]bool, class.Len())
	for i, v := range class.Data {
		ext[i] = class.Valid(i) && v > 0 && v < 9
	}
	return ext
}

type Products struct {
	Filtered    *grid.Float
	Unfiltered  *grid.Float
	Uncertainty *grid.Float
	Mask        *grid.Int16
}

// Apply 先限制到有效范围得到未过滤产品，再按掩膜去除得到过滤产品，非有限值一律置为无效值
func Apply(elev, uncert *grid.Float, extent []bool, m *Mask) (p Products, err error) {
	geo := elev.Geo
	if err = checkShape(geo, "uncertainty", uncert.Geo); err != nil {
		return
	}
	if err = checkShape(geo, "mask", m.Geo); err != nil {
		return
	}
	if len(extent) != geo.Len() {
		err = fmt.Errorf("%w: extent has %d cells, want %d", ErrShapeMismatch, len(extent), geo.Len())
		return
	}
	p.Unfiltered = grid.NewFloat(geo, grid.Nodata)
	p.Uncertainty = grid.NewFloat(geo, grid.Nodata)
	p.Filtered = grid.NewFloat(geo, grid.Nodata)
	p.Mask = m.Int16()
	for i := range extent {
		if !extent[i] {
			continue
		}
		p.Unfiltered.Data[i] = clean(elev.Data[i], elev.Nodata)
		p.Uncertainty.Data[i] = clean(uncert.Data[i], uncert.Nodata)
		if !m.Masked(i) {
			p.Filtered.Data[i] = p.Unfiltered.Data[i]
		}
	}
	return
}

func clean(v, nodata float64) float64 {
	if v == nodata || math.IsNaN(v) || math.IsInf(v, 0) {
		return grid.Nodata
	}
	return v
}
