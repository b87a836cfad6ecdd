package contour

import (
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wgdzlh/nidem/grid"
)

const nd = -6666

var testGeo = grid.Geo{
	Rows:      4,
	Cols:      4,
	Transform: grid.Affine{500000, 25, 0, 7000000, 0, -25},
	CRS:       `PROJCS["GDA94 / Australian Albers"]`,
}

func raster(geo grid.Geo, data ...float64) *grid.Float {
	r := grid.NewFloat(geo, nd)
	copy(r.Data, data)
	return r
}

func scenarioA() *grid.Float {
	return raster(testGeo,
		9, 9, 9, 9,
		5, 5, 5, 5,
		5, 5, 5, 5,
		0, 0, 0, 0,
	)
}

func pixelRows(t *testing.T, geo grid.Geo, ls geom.LineString) (rows, cols []float64) {
	inv, err := geo.Transform.Invert()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range ls {
		c, r := inv.Apply(p.X, p.Y)
		rows = append(rows, r-0.5)
		cols = append(cols, c-0.5)
	}
	return
}

func TestExtractScenarioA(t *testing.T) {
	set, err := Extract([]float64{4.5, 5.5}, scenarioA())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{4.5, 5.5}, set.Levels()); diff != "" {
		t.Fatalf("levels (-want +got):\n%s", diff)
	}
	approx := cmpopts.EquateApprox(0, 1e-9)
	for level, wantRow := range map[float64]float64{4.5: 2.1, 5.5: 0.875} {
		lines := set.Lines(level)
		if len(lines) != 1 {
			t.Fatalf("level %v: %d lines", level, len(lines))
		}
		rows, cols := pixelRows(t, testGeo, lines[0])
		if diff := cmp.Diff([]float64{wantRow, wantRow, wantRow, wantRow}, rows, approx); diff != "" {
			t.Errorf("level %v rows (-want +got):\n%s", level, diff)
		}
		// high values on top: segments run right to left
		if diff := cmp.Diff([]float64{3, 2, 1, 0}, cols, approx); diff != "" {
			t.Errorf("level %v cols (-want +got):\n%s", level, diff)
		}
	}
}

func TestExtractAbsentLevel(t *testing.T) {
	set, err := Extract([]float64{0.5, 4.5, 8.5, 9.5}, scenarioA())
	if err != nil {
		t.Fatal(err)
	}
	// 0.5 and 8.5 cross too, 9.5 has no transition
	if diff := cmp.Diff([]float64{0.5, 4.5, 8.5}, set.Levels()); diff != "" {
		t.Fatal(diff)
	}
	if set.Has(9.5) || set.Lines(9.5) != nil {
		t.Fatal("level without transition must be absent")
	}
}

func TestExtractInvalidLevels(t *testing.T) {
	for _, levels := range [][]float64{nil, {0.5, math.NaN()}, {1.5, 1.5}} {
		if _, err := Extract(levels, scenarioA()); !errors.Is(err, ErrInvalidLevels) {
			t.Errorf("%v: err = %v", levels, err)
		}
	}
}

func TestExtractSkipsNodata(t *testing.T) {
	r := scenarioA()
	for c := 0; c < 4; c++ {
		r.Set(3, c, nd)
	}
	set, err := Extract([]float64{4.5}, r)
	if err != nil {
		t.Fatal(err)
	}
	if !set.Empty() {
		t.Fatalf("nodata squares produced contours: %v", set.Levels())
	}
}

func TestExtractMinVertices(t *testing.T) {
	set, err := Extract([]float64{4.5}, scenarioA(), MinVertices(5))
	if err != nil {
		t.Fatal(err)
	}
	if !set.Empty() {
		t.Fatal("4-vertex line should be dropped")
	}
}

func TestExtractClosedRing(t *testing.T) {
	geo := grid.Geo{Rows: 5, Cols: 5, Transform: grid.Affine{0, 1, 0, 0, 0, -1}}
	r := raster(geo,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 9, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	)
	set, err := Extract([]float64{4.5}, r)
	if err != nil {
		t.Fatal(err)
	}
	lines := set.Lines(4.5)
	if len(lines) != 1 {
		t.Fatalf("%d lines", len(lines))
	}
	ring := lines[0]
	if len(ring) != 5 || ring[0] != ring[len(ring)-1] {
		t.Fatalf("expected closed diamond, got %v", ring)
	}
}

func TestExtractDeterministic(t *testing.T) {
	geo := grid.Geo{Rows: 6, Cols: 6, Transform: grid.Affine{0, 1, 0, 0, 0, -1}}
	r := raster(geo,
		1, 2, 3, 4, 5, 6,
		2, 9, 1, 8, 2, 7,
		3, 1, 9, 1, 9, 1,
		8, 2, 1, 7, 3, 2,
		1, 9, 2, 1, 8, 1,
		6, 5, 4, 3, 2, 1,
	)
	levels := []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5, 8.5}
	a, err := Extract(levels, r)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Extract(levels, r)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.lines, b.lines); diff != "" {
		t.Error(diff)
	}
}

func TestAttributesMissingValue(t *testing.T) {
	set, err := Extract([]float64{4.5, 5.5}, scenarioA())
	if err != nil {
		t.Fatal(err)
	}
	f := Field{Name: FIELD_ELEV, Values: map[float64]float64{4.5: 1}}
	if _, err = Attributes(set, f); !errors.Is(err, ErrFieldLength) {
		t.Fatalf("err = %v", err)
	}
}

func TestAttributesDefaults(t *testing.T) {
	set, err := Extract([]float64{4.5, 5.5}, scenarioA())
	if err != nil {
		t.Fatal(err)
	}
	got, err := Attributes(set)
	if err != nil {
		t.Fatal(err)
	}
	want := []Field{{Name: FIELD_Z_VALUE, Values: map[float64]float64{4.5: 4.5, 5.5: 5.5}, Width: FieldWidth, Precision: FieldPrecision}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	elev := Field{Name: FIELD_ELEV, Values: map[float64]float64{4.5: -0.35, 5.5: 0.15}}
	got, err = Attributes(set, elev)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Width != FieldWidth || got[0].Precision != FieldPrecision {
		t.Errorf("width/precision = %d/%d", got[0].Width, got[0].Precision)
	}
}
