package tide

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wgdzlh/nidem/log"
)

const (
	CSV_COL_NAME      = "constituent"
	CSV_COL_AMPLITUDE = "amplitude_m"
	CSV_COL_PHASE     = "phase_deg"

	// 平均海面行的名称，其振幅即为基准面偏移
	MeanLevelName = "Z0"
)

// 分潮角速度（度/小时）
var speeds = map[string]float64{
	"M2":   28.9841042,
	"S2":   30.0,
	"N2":   28.4397295,
	"K2":   30.0821373,
	"K1":   15.0410686,
	"O1":   13.9430356,
	"P1":   14.9589314,
	"Q1":   13.3986609,
	"2N2":  27.8953548,
	"MU2":  27.9682084,
	"NU2":  28.5125831,
	"L2":   29.5284789,
	"T2":   29.9589333,
	"M4":   57.9682084,
	"MS4":  58.9841042,
	"MN4":  57.4238337,
	"M6":   86.9523127,
	"SA":   0.0410686,
	"SSA":  0.0821373,
	"MM":   0.5443747,
	"MF":   1.0980331,
	"J1":   15.5854433,
	"OO1":  16.1391017,
	"2Q1":  12.8542862,
	"RHO1": 13.4715145,
}

// 相位参考时刻
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type Constituent struct {
	Name      string
	Amplitude float64 // 米
	Phase     float64 // 度，相对Epoch
	speed     float64
}

// 单站调和模型，不做交点因子订正
type Harmonic struct {
	MeanLevel    float64
	Constituents []Constituent
}

func LoadHarmonic(path string) (h *Harmonic, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if h, err = ReadHarmonic(f); err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		return
	}
	log.Info(logTag+"harmonic model loaded", zap.String("csv", path), zap.Int("constituents", len(h.Constituents)))
	return
}

// 读取constituent,amplitude_m,phase_deg格式的调和常数表
func ReadHarmonic(r io.Reader) (h *Harmonic, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		err = fmt.Errorf("%w: header: %v", ErrInvalidCSV, err)
		return
	}
	if len(header) != 3 || header[0] != CSV_COL_NAME || header[1] != CSV_COL_AMPLITUDE || header[2] != CSV_COL_PHASE {
		err = fmt.Errorf("%w: header %v", ErrInvalidCSV, header)
		return
	}
	h = &Harmonic{}
	var rec []string
	for line := 2; ; line++ {
		if rec, err = reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
				return
			}
			err = fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
			return
		}
		name := strings.ToUpper(strings.TrimSpace(rec[0]))
		var amp, pha float64
		if amp, err = strconv.ParseFloat(strings.TrimSpace(rec[1]), 64); err != nil {
			err = fmt.Errorf("%w: amplitude of %s: %v", ErrInvalidCSV, name, err)
			return
		}
		if pha, err = strconv.ParseFloat(strings.TrimSpace(rec[2]), 64); err != nil {
			err = fmt.Errorf("%w: phase of %s: %v", ErrInvalidCSV, name, err)
			return
		}
		if name == MeanLevelName {
			h.MeanLevel = amp
			continue
		}
		speed, ok := speeds[name]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrUnknownConstituent, name)
			return
		}
		h.Constituents = append(h.Constituents, Constituent{Name: name, Amplitude: amp, Phase: pha, speed: speed})
	}
}

func (h *Harmonic) At(t time.Time) float64 {
	hours := t.Sub(Epoch).Hours()
	z := h.MeanLevel
	for _, c := range h.Constituents {
		arg := math.Mod(c.speed*hours-c.Phase, 360)
		z += c.Amplitude * math.Cos(arg*math.Pi/180)
	}
	return z
}

// Predict 模型为单站模型，忽略点位经纬度
func (h *Harmonic) Predict(ctx context.Context, pts []Point) (heights []float64, err error) {
	heights = make([]float64, len(pts))
	for i, p := range pts {
		if i%4096 == 0 {
			if err = ctx.Err(); err != nil {
				heights = nil
				return
			}
		}
		heights[i] = h.At(p.Time)
	}
	return
}
