package nidem

import "github.com/wgdzlh/nidem/utils"

const (
	SHP_DRIVER_NAME = "ESRI Shapefile"
	UNIVERSAL_SRID  = 4326
	SHAPE_ENCODING  = "UTF-8"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING

	// ITEM多边形字段
	SHP_FIELD_ID  = "ID"
	SHP_FIELD_LAT = "lat"
	SHP_FIELD_LON = "lon"

	ITEM_REL_PATTERN = "ITEM_REL_%d_*" + utils.FILE_EXT_TIF
	ITEM_STD_PATTERN = "ITEM_STD_%d_*" + utils.FILE_EXT_TIF
	ITEM_NODATA      = -6666

	GTIFF_COMPRESS = "COMPRESS=DEFLATE"

	// netCDF-4 classic模型，DEFLATE 9级压缩，不写GDAL版本及history
	NETCDF_DRIVER_NAME = "netCDF"
	NETCDF_VARNAME     = "NETCDF_VARNAME"
	NETCDF_GLOBAL      = "NC_GLOBAL#"
	WARP_RESAMPLING    = "bilinear"

	ErrColumnMissingTemplate = "shp missing field [%s]"
)
