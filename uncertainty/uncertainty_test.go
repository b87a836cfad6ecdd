package uncertainty

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/wgdzlh/nidem/catalog"
	"github.com/wgdzlh/nidem/tide"
)

var footprint = geom.Bounds{Min: geom.Point{X: 149, Y: -35}, Max: geom.Point{X: 151, Y: -33}}

type fakeCatalog struct {
	acqs    map[string][]catalog.Acquisition
	windows map[string]catalog.TimeRange
	err     error
}

func (f *fakeCatalog) Find(_ context.Context, product string, tr catalog.TimeRange, _ geom.Bounds) ([]catalog.Acquisition, error) {
	if f.windows == nil {
		f.windows = map[string]catalog.TimeRange{}
	}
	f.windows[product] = tr
	if f.err != nil {
		return nil, f.err
	}
	return f.acqs[product], nil
}

type fakeOracle struct {
	heights []float64
	got     []tide.Point
}

func (f *fakeOracle) Predict(_ context.Context, pts []tide.Point) ([]float64, error) {
	f.got = pts
	return f.heights[:len(pts)], nil
}

func acq(product string, t time.Time) catalog.Acquisition {
	return catalog.Acquisition{Product: product, Time: t, Footprint: footprint}
}

var nanEqual = cmp.Options{cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)}

func TestIntervalStdDevsSingleObservation(t *testing.T) {
	got := IntervalStdDevs([]float64{0, 0.05, 1.5, 10})
	want := make([]float64, Intervals)
	for i := range want {
		want[i] = math.NaN()
	}
	want[0] = math.Sqrt(2 * 0.025 * 0.025)
	if diff := cmp.Diff(want, got, nanEqual); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestIntervalStdDevsEdges(t *testing.T) {
	// values exactly on an edge fall into the lower interval
	got := IntervalStdDevs([]float64{0, 1, 1, 1, 2, 1.5, 10})
	require.InDelta(t, math.Sqrt(1.0/3*(3*0.25*0.25+0.75*0.75)), got[0], 1e-12)
	require.InDelta(t, math.Sqrt(2*0.25*0.25), got[1], 1e-12)
	for _, s := range got[2:] {
		require.True(t, math.IsNaN(s))
	}
}

func TestIntervalStdDevsDegenerate(t *testing.T) {
	for _, hs := range [][]float64{nil, {1.5, 1.5, 1.5}} {
		got := IntervalStdDevs(hs)
		require.Len(t, got, Intervals)
		for _, s := range got {
			require.True(t, math.IsNaN(s))
		}
	}
}

func TestIntervalStdDevsSkipsNonFinite(t *testing.T) {
	want := IntervalStdDevs([]float64{0, 1, 1, 1, 2, 1.5, 10})
	got := IntervalStdDevs([]float64{0, math.NaN(), 1, 1, 1, math.Inf(1), 2, 1.5, 10, math.Inf(-1)})
	if diff := cmp.Diff(want, got, nanEqual); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	for _, s := range IntervalStdDevs([]float64{math.NaN(), math.NaN()}) {
		require.True(t, math.IsNaN(s))
	}
}

func TestSolarDays(t *testing.T) {
	t1 := time.Date(2001, 3, 4, 13, 50, 0, 0, time.UTC)
	t2 := time.Date(2001, 3, 4, 14, 20, 0, 0, time.UTC)
	t3 := time.Date(2001, 3, 4, 2, 0, 0, 0, time.UTC)
	got := SolarDays([]catalog.Acquisition{acq("ls7", t1), acq("ls7", t2), acq("ls7", t3)})
	if diff := cmp.Diff([]time.Time{t3, t2}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEstimate(t *testing.T) {
	base := time.Date(1990, 1, 1, 1, 0, 0, 0, time.UTC)
	cat := &fakeCatalog{acqs: map[string][]catalog.Acquisition{
		"ls5": {acq("ls5", base.Add(48*time.Hour)), acq("ls5", base)},
		"ls7": {acq("ls7", base.Add(24*time.Hour)), acq("ls7", base.Add(24*time.Hour+time.Minute))},
	}}
	oracle := &fakeOracle{heights: []float64{-1, 0, 1, 2}}
	est := NewEstimator(cat, oracle)
	site := Site{ID: 7, Lon: 150.1, Lat: -34.2, Footprint: footprint}
	got, err := est.Estimate(context.Background(), site)
	require.NoError(t, err)
	require.Len(t, got, Intervals)

	// one observation per solar day, sorted across products
	require.Len(t, oracle.got, 3)
	for i, want := range []time.Time{base, base.Add(24 * time.Hour), base.Add(48 * time.Hour)} {
		require.True(t, want.Equal(oracle.got[i].Time), "point %d at %v", i, oracle.got[i].Time)
		require.Equal(t, site.Lon, oracle.got[i].Lon)
		require.Equal(t, site.Lat, oracle.got[i].Lat)
	}

	require.Equal(t, DefaultWindow, cat.windows["ls5"])
	require.Equal(t, catalog.TimeRange{Start: DefaultWindow.Start, End: LS7SlcOff}, cat.windows["ls7"])
	require.Equal(t, DefaultWindow, cat.windows["ls8"])
}

func TestEstimateWindowOverride(t *testing.T) {
	cat := &fakeCatalog{}
	w := catalog.TimeRange{Start: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC)}
	est := NewEstimator(cat, &fakeOracle{}, WithWindow(w), WithProducts(Product{Name: "ls7", Until: LS7SlcOff}, Product{Name: "s2"}))
	got, err := est.Estimate(context.Background(), Site{Footprint: footprint})
	require.NoError(t, err)
	for _, s := range got {
		require.True(t, math.IsNaN(s))
	}
	require.Equal(t, map[string]catalog.TimeRange{"ls7": w, "s2": w}, cat.windows)
}

func TestEstimateCatalogError(t *testing.T) {
	boom := errors.New("catalog offline")
	est := NewEstimator(&fakeCatalog{err: boom}, &fakeOracle{})
	_, err := est.Estimate(context.Background(), Site{})
	require.ErrorIs(t, err, boom)
}
