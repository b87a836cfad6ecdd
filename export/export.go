// Package export 将瓦片产品暂存后整体移入最终目录：GeoTIFF、等值线shp、netCDF及预览图
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wgdzlh/nidem/contour"
	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/mask"
	"github.com/wgdzlh/nidem/utils"
)

const (
	DIR_NIDEM       = "geotiff/nidem"
	DIR_UNFILTERED  = "geotiff/nidem_unfiltered"
	DIR_UNCERTAINTY = "geotiff/nidem_uncertainty"
	DIR_MASK        = "geotiff/nidem_mask"
	DIR_CONTOURS    = "shapefile/nidem_contours"
	DIR_NETCDF      = "netcdf"
	DIR_QUICKLOOK   = "quicklook"
)

// 单波段GeoTIFF写出（DEFLATE压缩，无效值-9999）
type RasterWriter interface {
	WriteFloat32(path string, r *grid.Float) error
	WriteInt16(path string, r *grid.Int16) error
}

// 等值线shp写出，fields为空时写z_value
type VectorWriter interface {
	WriteContours(path string, set contour.Set, crsWKT string, fields ...contour.Field) error
}

type Writer interface {
	RasterWriter
	VectorWriter
	ArchiveWriter
}

// 输出文件路径（相对Exporter.Dir）
type Manifest struct {
	Nidem       string
	Unfiltered  string
	Uncertainty string
	Mask        string
	Contours    string
	NetCDF      string
	Quicklook   string
}

func (m Manifest) Files() (files []string) {
	for _, f := range []string{m.Nidem, m.Unfiltered, m.Uncertainty, m.Mask, m.NetCDF, m.Quicklook} {
		if f != "" {
			files = append(files, f)
		}
	}
	if m.Contours != "" {
		files = append(files, utils.GetShpSidecars(m.Contours)...)
	}
	return
}

func NewManifest(tile grid.Tile, quicklook bool) (m Manifest) {
	suffix := fmt.Sprintf("%d_%s", tile.ID, tile.Tag)
	m = Manifest{
		Nidem:       filepath.Join(DIR_NIDEM, "NIDEM_"+suffix+utils.FILE_EXT_TIF),
		Unfiltered:  filepath.Join(DIR_UNFILTERED, "NIDEM_unfiltered_"+suffix+utils.FILE_EXT_TIF),
		Uncertainty: filepath.Join(DIR_UNCERTAINTY, "NIDEM_uncertainty_"+suffix+utils.FILE_EXT_TIF),
		Mask:        filepath.Join(DIR_MASK, "NIDEM_mask_"+suffix+utils.FILE_EXT_TIF),
		Contours:    filepath.Join(DIR_CONTOURS, "NIDEM_contours_"+suffix+utils.FILE_EXT_SHP),
		NetCDF:      filepath.Join(DIR_NETCDF, "NIDEM_"+suffix+utils.FILE_EXT_NC),
	}
	if quicklook {
		m.Quicklook = filepath.Join(DIR_QUICKLOOK, "NIDEM_"+suffix+utils.FILE_EXT_PNG)
	}
	return
}

type step struct {
	name string
	run  func() error
}

type Exporter struct {
	Dir       string
	Rasters   RasterWriter
	Vectors   VectorWriter
	Archives  ArchiveWriter
	Metadata  Metadata
	Quicklook bool
	logTag    string
}

func NewExporter(dir string, w Writer) *Exporter {
	return &Exporter{Dir: dir, Rasters: w, Vectors: w, Archives: w, Metadata: DefaultMetadata(), logTag: "TileExporter:"}
}

// Export 先写入Dir下的临时目录，全部成功后再移动到最终位置；任一步失败则清理，不留下部分产品
func (e *Exporter) Export(ctx context.Context, tile grid.Tile, p mask.Products, set contour.Set, fields []contour.Field) (m Manifest, err error) {
	m = NewManifest(tile, e.Quicklook)
	scratch, err := utils.GetUniqSubDir(e.Dir)
	if err != nil {
		return
	}
	defer os.RemoveAll(scratch)
	log.Info(e.logTag+"staging tile outputs", zap.Int("id", tile.ID), zap.String("scratch", scratch))
	for _, rel := range m.Files() {
		if err = os.MkdirAll(filepath.Join(scratch, filepath.Dir(rel)), os.ModePerm); err != nil {
			return
		}
	}
	staged := func(rel string) string {
		return filepath.Join(scratch, rel)
	}
	steps := []step{
		{"nidem", func() error { return e.Rasters.WriteFloat32(staged(m.Nidem), p.Filtered) }},
		{"unfiltered", func() error { return e.Rasters.WriteFloat32(staged(m.Unfiltered), p.Unfiltered) }},
		{"uncertainty", func() error { return e.Rasters.WriteFloat32(staged(m.Uncertainty), p.Uncertainty) }},
		{"mask", func() error { return e.Rasters.WriteInt16(staged(m.Mask), p.Mask) }},
		{"contours", func() error { return e.Vectors.WriteContours(staged(m.Contours), set, tile.Geo.CRS, fields...) }},
		{"netcdf", func() error {
			return e.Archives.WriteNetCDF(staged(m.NetCDF), tile.Geo, e.Metadata.Globals(tile.Geo.CRS), Variables(p)...)
		}},
	}
	if e.Quicklook {
		steps = append(steps, step{"quicklook", func() error { return WriteQuicklook(staged(m.Quicklook), tile, set) }})
	}
	for _, s := range steps {
		if err = ctx.Err(); err != nil {
			return
		}
		if err = s.run(); err != nil {
			log.Error(e.logTag+"write output failed", zap.String("output", s.name), zap.Error(err))
			err = fmt.Errorf("export %s: %w", s.name, err)
			return
		}
	}
	err = e.commit(scratch, m.Files())
	if err == nil {
		log.Info(e.logTag+"tile outputs written", zap.Int("id", tile.ID), zap.String("dir", e.Dir))
	}
	return
}

// 移动暂存文件，中途失败时撤回已移动的文件
func (e *Exporter) commit(scratch string, files []string) (err error) {
	var moved []string
	for _, rel := range files {
		src := filepath.Join(scratch, rel)
		if _, statErr := os.Stat(src); os.IsNotExist(statErr) {
			// 无坐标系时不写prj
			continue
		}
		if err = utils.MoveFile(src, filepath.Join(e.Dir, rel)); err != nil {
			log.Error(e.logTag+"move output failed", zap.String("file", rel), zap.Error(err))
			for _, done := range moved {
				os.Remove(filepath.Join(e.Dir, done))
			}
			return
		}
		moved = append(moved, rel)
	}
	return
}
