package grid

import "math"

// 行优先的浮点栅格
type Float struct {
	Geo
	Data   []float64
	Nodata float64
}

func NewFloat(geo Geo, nodata float64) *Float {
	r := &Float{Geo: geo, Data: make([]float64, geo.Len()), Nodata: nodata}
	for i := range r.Data {
		r.Data[i] = nodata
	}
	return r
}

func (r *Float) At(row, col int) float64 {
	return r.Data[row*r.Cols+col]
}

func (r *Float) Set(row, col int, v float64) {
	r.Data[row*r.Cols+col] = v
}

// 非无效值且为有限数
func (r *Float) Valid(i int) bool {
	v := r.Data[i]
	return v != r.Nodata && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (r *Float) Clone() *Float {
	c := *r
	c.Data = append([]float64(nil), r.Data...)
	return &c
}

// 有效像元数
func (r *Float) CountValid() (n int) {
	for i := range r.Data {
		if r.Valid(i) {
			n++
		}
	}
	return
}

type Int16 struct {
	Geo
	Data   []int16
	Nodata int16
}

func NewInt16(geo Geo, nodata int16) *Int16 {
	r := &Int16{Geo: geo, Data: make([]int16, geo.Len()), Nodata: nodata}
	for i := range r.Data {
		r.Data[i] = nodata
	}
	return r
}

func (r *Int16) At(row, col int) int16 {
	return r.Data[row*r.Cols+col]
}
