package nidem

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/utils"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// 读取单波段tif为浮点栅格，波段未设置无效值时使用nodata
func (g *GdalToolbox) ReadFloat(tif string, nodata float64) (r *grid.Float, err error) {
	sds, err := godal.Open(tif, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrInvalidTif, tif)
		return
	}
	defer sds.Close()
	return g.readDataset(sds, tif, nodata)
}

func (g *GdalToolbox) readDataset(sds *godal.Dataset, name string, nodata float64) (r *grid.Float, err error) {
	bands := sds.Bands()
	if len(bands) == 0 {
		log.Error(g.logTag+"tif has no band", zap.String("tif", name))
		err = fmt.Errorf("%w: %s", ErrWrongTif, name)
		return
	}
	st := sds.Structure()
	gt, err := sds.GeoTransform()
	if err != nil {
		log.Error(g.logTag+"tif without geotransform", zap.String("tif", name), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrWrongTif, name)
		return
	}
	geo := grid.Geo{Rows: st.SizeY, Cols: st.SizeX, Transform: grid.Affine(gt), CRS: sds.Projection()}
	band := bands[0]
	if nd, ok := band.NoData(); ok {
		nodata = nd
	}
	log.Debug(g.logTag+"read tif band", zap.String("tif", name), zap.Int("width", geo.Cols), zap.Int("height", geo.Rows),
		zap.String("dt", st.DataType.String()), zap.Float64("nodata", nodata))
	r = grid.NewFloat(geo, nodata)
	if err = band.Read(0, 0, r.Data, geo.Cols, geo.Rows); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.String("tif", name), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrTifReadFailed, name)
		r = nil
	}
	return
}

// 按模式查找文件，存在多个时取排序后的第一个
func globFirst(dir, pattern string) (file string, ok bool) {
	files, _ := filepath.Glob(filepath.Join(dir, pattern))
	if len(files) == 0 {
		return
	}
	sort.Strings(files)
	return files[0], true
}

// 从ITEM_REL_{id}_{tag}.tif中取出坐标标签
func coordTag(file string, id int) string {
	return strings.TrimPrefix(utils.GetFilenameWithoutExt(file), fmt.Sprintf("ITEM_REL_%d_", id))
}

// ReadItemTile 读取多边形对应的ITEM分类栅格，栅格几何即瓦片几何
func (g *GdalToolbox) ReadItemTile(dir string, id int) (tile grid.Tile, r *grid.Float, err error) {
	tif, ok := globFirst(dir, fmt.Sprintf(ITEM_REL_PATTERN, id))
	if !ok {
		if e := utils.IsDir(dir); e != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInvalidTif, dir, e)
		} else {
			err = fmt.Errorf("%w: %s", ErrInvalidTif, filepath.Join(dir, fmt.Sprintf(ITEM_REL_PATTERN, id)))
		}
		return
	}
	if r, err = g.ReadFloat(tif, ITEM_NODATA); err != nil {
		return
	}
	tile = grid.Tile{ID: id, Tag: coordTag(tif, id), Geo: r.Geo}
	log.Info(g.logTag+"item tile loaded", zap.Int("id", id), zap.String("tif", tif), zap.String("tag", tile.Tag))
	return
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Reproject 将任意栅格双线性重采样到瓦片网格，网格外为grid.Nodata
func (g *GdalToolbox) Reproject(src string, geo grid.Geo) (r *grid.Float, err error) {
	sds, err := godal.Open(src, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", src), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrInvalidTif, src)
		return
	}
	defer sds.Close()
	ext := geo.Extent()
	opts := []string{
		"-of", "MEM",
		"-te", ftoa(ext[0]), ftoa(ext[1]), ftoa(ext[2]), ftoa(ext[3]),
		"-ts", strconv.Itoa(geo.Cols), strconv.Itoa(geo.Rows),
		"-r", WARP_RESAMPLING,
		"-dstnodata", ftoa(grid.Nodata),
		"-ot", "Float64",
	}
	if geo.CRS != "" {
		opts = append(opts, "-t_srs", geo.CRS)
	}
	ods, err := godal.Warp("", []*godal.Dataset{sds}, opts)
	if err != nil {
		log.Error(g.logTag+"warp raster failed", zap.String("tif", src), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrWarpFailed, src, err)
		return
	}
	defer ods.Close()
	if r, err = g.readDataset(ods, src, grid.Nodata); err != nil {
		return
	}
	if r.Rows != geo.Rows || r.Cols != geo.Cols {
		err = fmt.Errorf("%w: %s warped to %dx%d", ErrWarpFailed, src, r.Rows, r.Cols)
		r = nil
		return
	}
	// 以瓦片几何为准，消除-te换算带来的浮点误差
	r.Geo = geo
	log.Info(g.logTag+"raster reprojected", zap.String("tif", src), zap.Int("valid", r.CountValid()))
	return
}

// 单波段栅格，带地理变换、坐标系及无效值
func (g *GdalToolbox) createRaster(driver godal.DriverName, path string, dt godal.DataType, geo grid.Geo, nodata float64, opts ...string) (ds *godal.Dataset, band godal.Band, err error) {
	ds, err = godal.Create(driver, path, 1, dt, geo.Cols, geo.Rows, godal.CreationOption(opts...))
	if err != nil {
		log.Error(g.logTag+"create raster failed", zap.String("driver", string(driver)), zap.String("path", path), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrTifWriteFailed, path)
		return
	}
	if err = ds.SetGeoTransform([6]float64(geo.Transform)); err != nil {
		ds.Close()
		return
	}
	if geo.CRS != "" {
		if err = ds.SetProjection(geo.CRS); err != nil {
			ds.Close()
			return
		}
	}
	band = ds.Bands()[0]
	if err = band.SetNoData(nodata); err != nil {
		ds.Close()
	}
	return
}

func (g *GdalToolbox) finishTif(ds *godal.Dataset, path string, err error) error {
	if e := ds.Close(); err == nil && e != nil {
		err = e
	}
	if err != nil {
		log.Error(g.logTag+"write tif failed", zap.String("tif", path), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrTifWriteFailed, path, err)
	}
	return nil
}

// WriteFloat32 写出DEFLATE压缩的单波段Float32 GeoTIFF
func (g *GdalToolbox) WriteFloat32(path string, r *grid.Float) (err error) {
	ds, band, err := g.createRaster(godal.GTiff, path, godal.Float32, r.Geo, r.Nodata, GTIFF_COMPRESS)
	if err != nil {
		return
	}
	buf := make([]float32, len(r.Data))
	for i, v := range r.Data {
		buf[i] = float32(v)
	}
	return g.finishTif(ds, path, band.Write(0, 0, buf, r.Cols, r.Rows))
}

// WriteInt16 写出DEFLATE压缩的单波段Int16 GeoTIFF
func (g *GdalToolbox) WriteInt16(path string, r *grid.Int16) (err error) {
	ds, band, err := g.createRaster(godal.GTiff, path, godal.Int16, r.Geo, float64(r.Nodata), GTIFF_COMPRESS)
	if err != nil {
		return
	}
	return g.finishTif(ds, path, band.Write(0, 0, r.Data, r.Cols, r.Rows))
}
