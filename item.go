package nidem

import (
	"context"
	"errors"
	"fmt"

	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/pipeline"
	"github.com/wgdzlh/nidem/uncertainty"

	"go.uber.org/zap"
)

// ITEM数据源：按多边形ID定位各输入栅格，辅助栅格重投影到瓦片网格
type ItemSource struct {
	Paths ItemPaths
	g     *GdalToolbox
}

func NewItemSource(g *GdalToolbox, paths ItemPaths) *ItemSource {
	return &ItemSource{Paths: paths, g: g}
}

func missing(err error) error {
	if err == nil || errors.Is(err, pipeline.ErrMissingInput) {
		return err
	}
	return fmt.Errorf("%w: %w", pipeline.ErrMissingInput, err)
}

func (s *ItemSource) Classification(ctx context.Context, id int) (tile grid.Tile, r *grid.Float, err error) {
	tile, r, err = s.g.ReadItemTile(s.Paths.Relative, id)
	err = missing(err)
	return
}

// 置信度栅格与分类栅格同网格，不重投影
func (s *ItemSource) Confidence(ctx context.Context, tile grid.Tile) (r *grid.Float, err error) {
	if s.Paths.Confidence == "" {
		return
	}
	tif, ok := globFirst(s.Paths.Confidence, fmt.Sprintf(ITEM_STD_PATTERN, tile.ID))
	if !ok {
		err = fmt.Errorf("%w: no confidence tif for polygon %d", pipeline.ErrMissingInput, tile.ID)
		return
	}
	if r, err = s.g.ReadFloat(tif, grid.Nodata); err != nil {
		err = missing(err)
		return
	}
	if !r.Geo.Same(tile.Geo) {
		log.Warn(s.g.logTag+"confidence grid differs from tile, reprojecting", zap.String("tif", tif))
		r, err = s.g.Reproject(tif, tile.Geo)
	}
	return
}

func (s *ItemSource) Auxiliary(ctx context.Context, tile grid.Tile) (elev *grid.Float, bathy []*grid.Float, err error) {
	if s.Paths.Elevation != "" {
		if elev, err = s.g.Reproject(s.Paths.Elevation, tile.Geo); err != nil {
			err = missing(err)
			return
		}
	}
	for _, p := range s.Paths.Bathymetry {
		if err = ctx.Err(); err != nil {
			return
		}
		var b *grid.Float
		if b, err = s.g.Reproject(p, tile.Geo); err != nil {
			err = missing(err)
			return
		}
		bathy = append(bathy, b)
	}
	return
}

func (s *ItemSource) Site(ctx context.Context, id int) (site uncertainty.Site, err error) {
	site, err = s.g.FindItemPolygon(s.Paths.Polygons, id)
	err = missing(err)
	return
}
