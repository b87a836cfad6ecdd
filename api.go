package nidem

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

// ITEM输入路径
type ItemPaths struct {
	Relative   string   // ITEM_REL_*.tif目录
	Confidence string   // ITEM_STD_*.tif目录，可为空
	Polygons   string   // 多边形shp
	Elevation  string   // 地形高程栅格，可为空
	Bathymetry []string // 水深栅格
}
