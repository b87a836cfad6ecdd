package nidem

import (
	"fmt"

	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/uncertainty"

	"github.com/ctessum/geom"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// ParseItemPolygons 解析ITEM多边形shp：ID、潮位模型经纬度，范围转换到EPSG:4326
func (g *GdalToolbox) ParseItemPolygons(shp string) (ret []uncertainty.Site, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		log.Error(g.logTag+"open item polygon shp failed", zap.String("shp", shp))
		err = fmt.Errorf("%w: %s", ErrGdalDriverOpen, shp)
		return
	}
	defer ds.Destroy()
	var (
		layer = ds.LayerByIndex(0)
		def   = layer.Definition()
		trans gdal.CoordinateTransform
		idx   = map[string]int{}
	)
	for _, f := range []string{SHP_FIELD_ID, SHP_FIELD_LAT, SHP_FIELD_LON} {
		if idx[f] = def.FieldIndex(f); idx[f] < 0 {
			err = fmt.Errorf(ErrColumnMissingTemplate, f)
			return
		}
	}
	sRef := layer.SpatialReference()
	srid, err := g.getSrid(sRef)
	if err != nil {
		return
	}
	var (
		feature *gdal.Feature
		geo     gdal.Geometry
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	needTrans := srid != UNIVERSAL_SRID
	if needTrans {
		var tRef gdal.SpatialReference
		if tRef, err = g.getSridRef(UNIVERSAL_SRID); err != nil {
			return
		}
		trans = gdal.CreateCoordinateTransform(sRef, tRef)
		gc = append(gc, trans)
	}
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		geo = feature.Geometry()
		if geo.IsEmpty() {
			log.Warn(g.logTag+"skip empty item polygon", zap.Int64("fid", feature.FID()))
			continue
		}
		if needTrans {
			if err = geo.Transform(trans); err != nil {
				log.Error(g.logTag+"geo transform failed", zap.Int64("fid", feature.FID()), zap.Error(err))
				return
			}
		}
		env := geo.Envelope()
		ret = append(ret, uncertainty.Site{
			ID:  feature.FieldAsInteger(idx[SHP_FIELD_ID]),
			Lon: feature.FieldAsFloat64(idx[SHP_FIELD_LON]),
			Lat: feature.FieldAsFloat64(idx[SHP_FIELD_LAT]),
			Footprint: geom.Bounds{
				Min: geom.Point{X: env.MinX(), Y: env.MinY()},
				Max: geom.Point{X: env.MaxX(), Y: env.MaxY()},
			},
		})
	}
	if len(ret) == 0 {
		err = fmt.Errorf("%w: %s", ErrGdalEmptyShp, shp)
		return
	}
	log.Info(g.logTag+"item polygons parsed", zap.String("shp", shp), zap.Int("srid", srid), zap.Int("polygons", len(ret)))
	return
}

func (g *GdalToolbox) FindItemPolygon(shp string, id int) (site uncertainty.Site, err error) {
	sites, err := g.ParseItemPolygons(shp)
	if err != nil {
		return
	}
	for _, s := range sites {
		if s.ID == id {
			return s, nil
		}
	}
	err = fmt.Errorf("%w: %d in %s", ErrPolygonNotFound, id, shp)
	return
}
