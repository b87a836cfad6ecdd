// Package uncertainty 由观测时刻的潮位分布估计各潮位区间的高程不确定度
package uncertainty

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ctessum/geom"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/wgdzlh/nidem/catalog"
	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/tide"
)

// 潮位区间数
const Intervals = 9

var (
	DefaultWindow = catalog.TimeRange{
		Start: time.Date(1986, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	// ls7 SLC故障后的数据不参与统计
	LS7SlcOff = time.Date(2003, 5, 1, 0, 0, 0, 0, time.UTC)
)

// 潮位模型站点：ITEM多边形ID、代表经纬度及EPSG:4326范围
type Site struct {
	ID        int
	Lon       float64
	Lat       float64
	Footprint geom.Bounds
}

type Catalog interface {
	Find(ctx context.Context, product string, tr catalog.TimeRange, b geom.Bounds) ([]catalog.Acquisition, error)
}

type Oracle interface {
	Predict(ctx context.Context, pts []tide.Point) ([]float64, error)
}

// 参与统计的影像产品，Until非零时截断时间窗口
type Product struct {
	Name  string
	Until time.Time
}

func DefaultProducts() []Product {
	return []Product{{Name: "ls5"}, {Name: "ls7", Until: LS7SlcOff}, {Name: "ls8"}}
}

func (p Product) window(global catalog.TimeRange) catalog.TimeRange {
	w := global
	if !p.Until.IsZero() && p.Until.Before(w.End) {
		w.End = p.Until
	}
	return w
}

type Estimator struct {
	catalog  Catalog
	oracle   Oracle
	products []Product
	window   catalog.TimeRange
	logTag   string
}

type Option func(*Estimator)

func WithProducts(ps ...Product) Option {
	return func(e *Estimator) {
		e.products = ps
	}
}

func WithWindow(w catalog.TimeRange) Option {
	return func(e *Estimator) {
		e.window = w
	}
}

func NewEstimator(cat Catalog, oracle Oracle, opts ...Option) *Estimator {
	e := &Estimator{
		catalog:  cat,
		oracle:   oracle,
		products: DefaultProducts(),
		window:   DefaultWindow,
		logTag:   "UncertaintyEstimator:",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate 返回9个区间的潮位样本标准差，样本不足的区间为NaN
func (e *Estimator) Estimate(ctx context.Context, site Site) (stds []float64, err error) {
	var times []time.Time
	for _, p := range e.products {
		var acqs []catalog.Acquisition
		if acqs, err = e.catalog.Find(ctx, p.Name, p.window(e.window), site.Footprint); err != nil {
			err = fmt.Errorf("find %s acquisitions: %w", p.Name, err)
			return
		}
		days := SolarDays(acqs)
		log.Debug(e.logTag+"product observations", zap.String("product", p.Name),
			zap.Int("acquisitions", len(acqs)), zap.Int("solarDays", len(days)))
		times = append(times, days...)
	}
	if len(times) == 0 {
		log.Warn(e.logTag+"no observations for site", zap.Int("id", site.ID))
		stds = nanIntervals()
		return
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	pts := make([]tide.Point, len(times))
	for i, t := range times {
		pts[i] = tide.Point{Lon: site.Lon, Lat: site.Lat, Time: t}
	}
	heights, err := e.oracle.Predict(ctx, pts)
	if err != nil {
		err = fmt.Errorf("predict tides: %w", err)
		return
	}
	stds = IntervalStdDevs(heights)
	log.Info(e.logTag+"interval uncertainties", zap.Int("id", site.ID), zap.Int("observations", len(heights)),
		zap.Float64s("std", stds))
	return
}

func nanIntervals() []float64 {
	s := make([]float64, Intervals)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// SolarDays 按太阳日（UTC加中心经度/15小时后的日期）合并获取记录，每组取最早时刻
func SolarDays(acqs []catalog.Acquisition) (times []time.Time) {
	type day struct {
		y int
		m time.Month
		d int
	}
	first := map[day]time.Time{}
	var order []day
	for _, a := range acqs {
		t := a.Time.UTC()
		local := t.Add(time.Duration(a.CenterLon() / 15 * float64(time.Hour)))
		k := day{}
		k.y, k.m, k.d = local.Date()
		prev, ok := first[k]
		if !ok {
			order = append(order, k)
		}
		if !ok || t.Before(prev) {
			first[k] = t
		}
	}
	times = make([]time.Time, len(order))
	for i, k := range order {
		times[i] = first[k]
	}
	return
}

// IntervalStdDevs 将[min, max]按十等分边界e_k划为9个区间(e_{j-1}, e_j]（最小值归入第1区间，
// 高于e_9者不计），逐区间计算样本标准差。非有限潮位视为缺测，不参与统计
func IntervalStdDevs(heights []float64) []float64 {
	heights = finite(heights)
	if len(heights) == 0 {
		return nanIntervals()
	}
	lo, hi := heights[0], heights[0]
	for _, h := range heights[1:] {
		lo = math.Min(lo, h)
		hi = math.Max(hi, h)
	}
	rng := hi - lo
	if rng == 0 || math.IsNaN(rng) {
		return nanIntervals()
	}
	var edges [Intervals + 1]float64
	for k := range edges {
		edges[k] = lo + rng*float64(k)/10
	}
	bins := make([][]float64, Intervals)
	for _, h := range heights {
		if h == lo {
			bins[0] = append(bins[0], h)
			continue
		}
		for j := 1; j <= Intervals; j++ {
			if h > edges[j-1] && h <= edges[j] {
				bins[j-1] = append(bins[j-1], h)
				break
			}
		}
	}
	stds := make([]float64, Intervals)
	for j, b := range bins {
		if len(b) < 2 {
			stds[j] = math.NaN()
			continue
		}
		stds[j] = stat.StdDev(b, nil)
	}
	return stds
}

func finite(vs []float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
