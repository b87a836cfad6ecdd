// Package pipeline 串联单个ITEM多边形瓦片的全部处理步骤
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wgdzlh/nidem/contour"
	"github.com/wgdzlh/nidem/export"
	"github.com/wgdzlh/nidem/gapfill"
	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/interp"
	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/mask"
	"github.com/wgdzlh/nidem/uncertainty"
)

var (
	ErrMissingInput = errors.New("missing input")
)

// 输入数据源。辅助栅格须已重投影到瓦片网格
type Source interface {
	// 分类栅格及其瓦片信息
	Classification(ctx context.Context, id int) (grid.Tile, *grid.Float, error)
	// 置信度栅格，未配置时返回nil
	Confidence(ctx context.Context, tile grid.Tile) (*grid.Float, error)
	// 地形高程栅格（未配置时为nil）及各水深栅格
	Auxiliary(ctx context.Context, tile grid.Tile) (elev *grid.Float, bathy []*grid.Float, err error)
	Site(ctx context.Context, id int) (uncertainty.Site, error)
}

type UncertaintyProvider interface {
	Estimate(ctx context.Context, site uncertainty.Site) ([]float64, error)
}

type Exporter interface {
	Export(ctx context.Context, tile grid.Tile, p mask.Products, set contour.Set, fields []contour.Field) (export.Manifest, error)
}

// 潮位区间边界值0.5..8.5
func DefaultLevels() []float64 {
	levels := make([]float64, uncertainty.Intervals)
	for i := range levels {
		levels[i] = float64(i) + 0.5
	}
	return levels
}

type Runner struct {
	Source      Source
	Heights     Table
	Uncertainty UncertaintyProvider
	Exporter    Exporter
	Levels      []float64
	FillRadius  int
	MinVertices int
	Thresholds  mask.Thresholds
	logTag      string
}

func NewRunner(src Source, heights Table, uncert UncertaintyProvider, exp Exporter) *Runner {
	return &Runner{
		Source:      src,
		Heights:     heights,
		Uncertainty: uncert,
		Exporter:    exp,
		Levels:      DefaultLevels(),
		FillRadius:  gapfill.DefaultRadius,
		MinVertices: contour.DefaultMinVertices,
		Thresholds:  mask.DefaultThresholds(),
		logTag:      "Pipeline:",
	}
}

// 单瓦片处理结果
type Result struct {
	Tile       grid.Tile
	Manifest   export.Manifest
	Levels     []float64 // 实际提取到等值线的边界值
	Points     int
	Degenerate bool
	Counts     [4]int // 各掩膜类别像元数
}

func (r *Runner) Run(ctx context.Context, id int) (res Result, err error) {
	tile, class, err := r.Source.Classification(ctx, id)
	if err != nil {
		return
	}
	res.Tile = tile
	log.Info(r.logTag+"processing polygon", zap.Int("id", id), zap.String("tag", tile.Tag),
		zap.Int("rows", tile.Geo.Rows), zap.Int("cols", tile.Geo.Cols))

	heights, err := r.Heights.Get(id)
	if err != nil {
		return
	}
	site, err := r.Source.Site(ctx, id)
	if err != nil {
		return
	}
	uncerts, err := r.Uncertainty.Estimate(ctx, site)
	if err != nil {
		err = fmt.Errorf("estimate uncertainty: %w", err)
		return
	}

	extent := mask.ValidExtent(class)
	filled := gapfill.Fill(class, r.FillRadius)
	set, err := contour.Extract(r.Levels, filled, contour.MinVertices(r.MinVertices))
	if err != nil {
		return
	}
	res.Levels = set.Levels()
	pts, err := interp.Assemble(set, r.Levels, heights, uncerts)
	if err != nil {
		return
	}
	res.Points = pts.Len()
	surf, err := interp.Interpolate(pts, tile.Geo)
	if err != nil {
		return
	}
	if res.Degenerate = surf.Degenerate; res.Degenerate {
		log.Warn(r.logTag+"no usable contours, surface left empty", zap.Int("id", id), zap.Int("points", res.Points))
	}

	conf, err := r.Source.Confidence(ctx, tile)
	if err != nil {
		return
	}
	elev, bathy, err := r.Source.Auxiliary(ctx, tile)
	if err != nil {
		return
	}
	if elev == nil {
		elev = grid.NewFloat(tile.Geo, grid.Nodata)
	}
	m, err := mask.Composite(elev, bathy, conf, r.Thresholds)
	if err != nil {
		return
	}
	res.Counts = m.Counts()
	p, err := mask.Apply(surf.Elevation, surf.Uncertainty, extent, m)
	if err != nil {
		return
	}

	res.Manifest, err = r.Exporter.Export(ctx, tile, p, set, r.fields(heights, uncerts))
	if err != nil {
		return
	}
	log.Info(r.logTag+"polygon done", zap.Int("id", id), zap.Int("contourLevels", len(res.Levels)),
		zap.Bool("degenerate", res.Degenerate))
	return
}

// 等值线shp属性：高程与不确定度（米）
func (r *Runner) fields(heights, uncerts []float64) []contour.Field {
	elev := contour.Field{Name: contour.FIELD_ELEV, Values: map[float64]float64{}}
	unc := contour.Field{Name: contour.FIELD_UNCERT, Values: map[float64]float64{}}
	for i, l := range r.Levels {
		elev.Values[l] = heights[i]
		unc.Values[l] = uncerts[i]
	}
	return []contour.Field{elev, unc}
}
