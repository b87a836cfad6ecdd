package nidem

import (
	"fmt"

	"github.com/wgdzlh/nidem/contour"
	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 按WKT创建shp输出图层，WKT为空时不写prj
func (g *GdalToolbox) getShpDriver(shp, crsWKT string) (ds gdal.DataSource, layer gdal.Layer, gc []destroyable, err error) {
	log.Info(g.logTag+"output shp files", zap.String("shp", shp))
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverCreate, shp)
		return
	}
	var ref gdal.SpatialReference
	if crsWKT != "" {
		ref = gdal.CreateSpatialReference("")
		gc = append(gc, ref)
		if err = ref.FromWKT(crsWKT); err != nil {
			log.Error(g.logTag+"parse crs wkt failed", zap.String("wkt", crsWKT), zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrVoidSrid, err)
			ds.Destroy()
			return
		}
		ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	}
	layer = ds.CreateLayer(utils.GetFilenameWithoutExt(shp), ref, gdal.GT_MultiLineString, []string{ENCODING_OPTION})
	return
}

// WriteContours 每个边界值写一条MultiLineString要素，属性为FT_Real字段
func (g *GdalToolbox) WriteContours(shp string, set contour.Set, crsWKT string, fields ...contour.Field) (err error) {
	fields, err = contour.Attributes(set, fields...)
	if err != nil {
		return
	}
	ds, layer, gc, err := g.getShpDriver(shp, crsWKT)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	if err != nil {
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	for _, f := range fields {
		fd := gdal.CreateFieldDefinition(f.Name, gdal.FT_Real)
		fd.SetWidth(int(f.Width))
		fd.SetPrecision(int(f.Precision))
		err = layer.CreateField(fd, false)
		fd.Destroy()
		if err != nil {
			log.Error(g.logTag+"create shp field failed", zap.String("field", f.Name), zap.Error(err))
			return
		}
	}
	def := layer.Definition()
	for i, l := range set.Levels() {
		feature := def.Create()
		gc = append(gc, feature)
		if err = feature.SetFID(int64(i)); err != nil {
			log.Error(g.logTag+"err in set feature fid", zap.Error(err))
			return
		}
		for j, f := range fields {
			feature.SetFieldFloat64(j, f.Values[l])
		}
		multi := gdal.Create(gdal.GT_MultiLineString)
		for _, ls := range set.Lines(l) {
			line := gdal.Create(gdal.GT_LineString)
			for _, p := range ls {
				line.AddPoint2D(p.X, p.Y)
			}
			if err = multi.AddGeometryDirectly(line); err != nil {
				multi.Destroy()
				return
			}
		}
		if err = feature.SetGeometryDirectly(multi); err != nil {
			log.Error(g.logTag+"err in set geom of feature", zap.Error(err))
			return
		}
		if err = layer.Create(feature); err != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Float64("level", l), zap.Error(err))
			return
		}
	}
	log.Info(g.logTag+"contour shp written", zap.String("shp", shp), zap.Int("records", len(set.Levels())))
	return
}
