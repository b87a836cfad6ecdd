package nidem

import (
	"fmt"

	"github.com/wgdzlh/nidem/export"
	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/log"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

var netcdfCreationOptions = []string{
	"FORMAT=NC4C",
	"COMPRESS=DEFLATE",
	"ZLEVEL=9",
	"WRITE_GDAL_VERSION=NO",
	"WRITE_GDAL_HISTORY=NO",
}

// WriteNetCDF 逐变量经内存数据集转出到同一netCDF文件，首个变量建文件并写全局属性，
// 其余以APPEND_SUBDATASET追加。x/y坐标变量由驱动按地理变换生成
func (g *GdalToolbox) WriteNetCDF(path string, geo grid.Geo, globals [][2]string, vars ...export.Variable) (err error) {
	for i, v := range vars {
		var mem *godal.Dataset
		if mem, err = g.memVariable(geo, v); err != nil {
			break
		}
		if i == 0 {
			for _, kv := range globals {
				if err = mem.SetMetadata(NETCDF_GLOBAL+kv[0], kv[1]); err != nil {
					break
				}
			}
		}
		if err == nil {
			err = g.appendVariable(mem, path, i > 0)
		}
		mem.Close()
		if err != nil {
			log.Error(g.logTag+"write netcdf variable failed", zap.String("nc", path), zap.String("var", v.Name), zap.Error(err))
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNetCDFWrite, path, err)
	}
	log.Info(g.logTag+"netcdf written", zap.String("nc", path), zap.Int("vars", len(vars)))
	return
}

func (g *GdalToolbox) appendVariable(mem *godal.Dataset, path string, appending bool) error {
	switches := []string{"-of", NETCDF_DRIVER_NAME}
	for _, co := range netcdfCreationOptions {
		switches = append(switches, "-co", co)
	}
	if appending {
		switches = append(switches, "-co", "APPEND_SUBDATASET=YES")
	}
	out, err := mem.Translate(path, switches)
	if err != nil {
		return err
	}
	return out.Close()
}

// 单波段内存数据集：变量名及属性写为波段元数据，无效值转为_FillValue
func (g *GdalToolbox) memVariable(geo grid.Geo, v export.Variable) (ds *godal.Dataset, err error) {
	var (
		band godal.Band
		data interface{}
	)
	switch {
	case v.Float != nil:
		ds, band, err = g.createRaster(godal.Memory, "", godal.Float32, geo, v.Float.Nodata)
		if err == nil {
			buf := make([]float32, len(v.Float.Data))
			for i, x := range v.Float.Data {
				buf[i] = float32(x)
			}
			data = buf
		}
	case v.Int16 != nil:
		ds, band, err = g.createRaster(godal.Memory, "", godal.Int16, geo, float64(v.Int16.Nodata))
		data = v.Int16.Data
	default:
		err = fmt.Errorf("variable %s has no data", v.Name)
	}
	if err != nil {
		return
	}
	if err = band.Write(0, 0, data, geo.Cols, geo.Rows); err != nil {
		ds.Close()
		return
	}
	md := append([][2]string{{NETCDF_VARNAME, v.Name}}, v.Attrs...)
	for _, kv := range md {
		if err = band.SetMetadata(kv[0], kv[1]); err != nil {
			ds.Close()
			return
		}
	}
	return
}
