package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"
)

var csvHeader = []string{"id", "product", "center_time", "min_x", "min_y", "max_x", "max_y"}

// ReadCSV 读取影像目录导出表，时间为RFC3339格式
func ReadCSV(r io.Reader) (rets []Acquisition, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return
	}
	if strings.Join(header, ",") != strings.Join(csvHeader, ",") {
		err = fmt.Errorf("catalog: csv header %v, want %v", header, csvHeader)
		return
	}
	var rec []string
	for line := 2; ; line++ {
		if rec, err = reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return
		}
		a := Acquisition{ID: rec[0], Product: rec[1]}
		if a.Time, err = time.Parse(time.RFC3339, rec[2]); err != nil {
			err = fmt.Errorf("catalog: line %d: %w", line, err)
			return
		}
		var v [4]float64
		for i := range v {
			if v[i], err = strconv.ParseFloat(rec[3+i], 64); err != nil {
				err = fmt.Errorf("catalog: line %d: %w", line, err)
				return
			}
		}
		a.Footprint = geom.Bounds{Min: geom.Point{X: v[0], Y: v[1]}, Max: geom.Point{X: v[2], Y: v[3]}}
		rets = append(rets, a)
	}
}
