package utils

import (
	"fmt"
	"strconv"
	"strings"
)

func StrToInt(s string) int {
	if s == "" {
		return 0
	}
	i, _ := strconv.Atoi(strings.TrimSpace(s))
	return i
}

// 按空白或sep分隔解析浮点数列表，任一字段非法即报错
func ParseFloats(s string, sep ...rune) (rets []float64, err error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			return true
		}
		for _, c := range sep {
			if r == c {
				return true
			}
		}
		return false
	})
	rets = make([]float64, 0, len(fields))
	var v float64
	for i, f := range fields {
		if v, err = strconv.ParseFloat(f, 64); err != nil {
			err = fmt.Errorf("field %d %q: %w", i, f, err)
			rets = nil
			return
		}
		rets = append(rets, v)
	}
	return
}
