package contour

import (
	"fmt"
)

const (
	FIELD_Z_VALUE  = "z_value"
	FIELD_ELEV     = "elev_m"
	FIELD_UNCERT   = "uncert_m"
	FieldWidth     = 9
	FieldPrecision = 2
)

// 等值线shp属性字段，Values以边界值为键
type Field struct {
	Name      string
	Values    map[float64]float64
	Width     uint8
	Precision uint8
}

// 默认字段：边界值本身
func ZValueField(set Set) Field {
	vals := make(map[float64]float64, len(set.levels))
	for _, l := range set.levels {
		vals[l] = l
	}
	return Field{Name: FIELD_Z_VALUE, Values: vals, Width: FieldWidth, Precision: FieldPrecision}
}

// Attributes 校验字段覆盖全部边界值并补全宽度精度，未给字段时取z_value
func Attributes(set Set, fields ...Field) (out []Field, err error) {
	if len(fields) == 0 {
		fields = []Field{ZValueField(set)}
	}
	out = make([]Field, len(fields))
	for i, f := range fields {
		for _, l := range set.levels {
			if _, ok := f.Values[l]; !ok {
				return nil, fmt.Errorf("%w: field %s, level %v", ErrFieldLength, f.Name, l)
			}
		}
		if f.Width == 0 {
			f.Width, f.Precision = FieldWidth, FieldPrecision
		}
		out[i] = f
	}
	return
}
