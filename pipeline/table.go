package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wgdzlh/nidem/uncertainty"
	"github.com/wgdzlh/nidem/utils"
)

// ITEM高程表文件名
const HeightTableName = "elevation.txt"

const millimetre = 1000.0

// 每个多边形各潮位区间的取值（米），文件中以毫米存储：`id,v1 v2 ... v9`
type Table map[int][]float64

func LoadTable(path string) (t Table, err error) {
	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrMissingInput, err)
		return
	}
	defer f.Close()
	return ReadTable(f)
}

func ReadTable(r io.Reader) (t Table, err error) {
	t = Table{}
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, vals, ok := strings.Cut(line, ",")
		if !ok {
			err = fmt.Errorf("line %d: no id separator", ln)
			return
		}
		id := utils.StrToInt(key)
		if id == 0 && strings.TrimSpace(key) != "0" {
			err = fmt.Errorf("line %d: invalid id %q", ln, key)
			return
		}
		var vs []float64
		if vs, err = utils.ParseFloats(vals); err != nil {
			err = fmt.Errorf("line %d: %w", ln, err)
			return
		}
		for i := range vs {
			vs[i] /= millimetre
		}
		t[id] = vs
	}
	err = sc.Err()
	return
}

func (t Table) Get(id int) ([]float64, error) {
	vs, ok := t[id]
	if !ok {
		return nil, fmt.Errorf("%w: polygon %d not in table", ErrMissingInput, id)
	}
	return vs, nil
}

// 预先计算好的不确定度表，替代实时估计
type TableUncertainty struct {
	Table Table
}

func (u TableUncertainty) Estimate(ctx context.Context, site uncertainty.Site) ([]float64, error) {
	return u.Table.Get(site.ID)
}
