// Package tide 提供潮位预测：调和常数模型及HTTP批量预测服务客户端
package tide

import (
	"errors"
	"time"
)

const logTag = "TideOracle:"

var (
	ErrUnknownConstituent = errors.New("tide: unknown constituent")
	ErrInvalidCSV         = errors.New("tide: invalid constituent csv")
	ErrResponseLength     = errors.New("tide: prediction count differs from request")
	ErrServiceStatus      = errors.New("tide: prediction service returned error status")
)

// 预测点：经纬度（EPSG:4326）及UTC时刻
type Point struct {
	Lon  float64
	Lat  float64
	Time time.Time
}
