package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/mask"
)

// netCDF变量：数据取Float或Int16之一，Attrs按名称排序
type Variable struct {
	Name  string
	Attrs [][2]string
	Float *grid.Float
	Int16 *grid.Int16
}

// 压缩netCDF写出，x/y坐标变量由写出方按网格生成
type ArchiveWriter interface {
	WriteNetCDF(path string, geo grid.Geo, globals [][2]string, vars ...Variable) error
}

// Variables 四个产品变量，按名称排序
func Variables(p mask.Products) (vars []Variable) {
	vars = []Variable{
		{Name: VAR_NIDEM, Float: p.Filtered},
		{Name: VAR_UNFILTERED, Float: p.Unfiltered},
		{Name: VAR_UNCERTAINTY, Float: p.Uncertainty},
		{Name: VAR_MASK, Int16: p.Mask},
	}
	for i := range vars {
		vars[i].Attrs = varMeta[vars[i].Name].attrs()
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return
}

// 数值数组按netCDF驱动约定写为{a,b}
func (m VarMeta) attrs() (kv [][2]string) {
	kv = append(kv, [2]string{"coverage_content_type", m.CoverageContentType}, [2]string{"long_name", m.LongName})
	if m.StandardName != "" {
		kv = append(kv, [2]string{"standard_name", m.StandardName})
	}
	kv = append(kv, [2]string{"units", m.Units})
	if len(m.ValidRange) > 0 {
		vs := make([]string, len(m.ValidRange))
		for i, v := range m.ValidRange {
			vs[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		kv = append(kv, [2]string{"valid_range", "{" + strings.Join(vs, ",") + "}"})
	}
	return
}

// Globals 全局属性（含坐标系WKT），不含写出时刻
func (m Metadata) Globals(crsWKT string) [][2]string {
	kv := m.attrs()
	if crsWKT != "" {
		kv = append(kv, [2]string{"crs_wkt", crsWKT})
		sort.Slice(kv, func(i, j int) bool { return kv[i][0] < kv[j][0] })
	}
	return kv
}
