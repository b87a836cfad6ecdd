package mask

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wgdzlh/nidem/grid"
)

var testGeo = grid.Geo{Rows: 1, Cols: 4, Transform: grid.Affine{0, 25, 0, 0, 0, -25}}

func raster(data ...float64) *grid.Float {
	r := grid.NewFloat(testGeo, grid.Nodata)
	copy(r.Data, data)
	return r
}

func TestHighestPriority(t *testing.T) {
	all := []Category{Unmasked, Terrestrial, Bathymetric, LowConfidence}
	for _, a := range all {
		for _, b := range all {
			got := Highest(a, b)
			want := a
			if b > a {
				want = b
			}
			if got != want || Highest(b, a) != want {
				t.Errorf("Highest(%v, %v) = %v, want %v", a, b, got, want)
			}
		}
	}
	if Highest(Terrestrial, Bathymetric, LowConfidence) != LowConfidence {
		t.Error("low confidence must win")
	}
	if Highest() != Unmasked {
		t.Error("no flags means unmasked")
	}
}

func TestComposite(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name  string
		elev  *grid.Float
		bathy []*grid.Float
		conf  *grid.Float
		want  []Category
	}{
		{
			name: "each flag alone",
			elev: raster(30, 0, 0, 0),
			bathy: []*grid.Float{
				raster(0, -30, 0, 0),
			},
			conf: raster(0, 0, 0.3, 0.25),
			want: []Category{Terrestrial, Bathymetric, LowConfidence, Unmasked},
		},
		{
			name: "all flags",
			elev: raster(30, 30, 30, 0),
			bathy: []*grid.Float{
				raster(-30, -30, 0, 0),
			},
			conf: raster(0.5, 0, 0.5, 0),
			want: []Category{LowConfidence, Bathymetric, LowConfidence, Unmasked},
		},
		{
			name: "bathymetry needs every source",
			elev: raster(0, 0, 0, 0),
			bathy: []*grid.Float{
				raster(-30, -30, -30, grid.Nodata),
				raster(-30, -10, grid.Nodata, -30),
			},
			want: []Category{Bathymetric, Unmasked, Unmasked, Unmasked},
		},
		{
			name: "no bathymetry sources",
			elev: raster(grid.Nodata, math.NaN(), 25, 25.01),
			want: []Category{Unmasked, Unmasked, Unmasked, Terrestrial},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Composite(tt.elev, tt.bathy, tt.conf, th)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, m.Data); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompositeShapeMismatch(t *testing.T) {
	other := grid.NewFloat(grid.Geo{Rows: 2, Cols: 2}, grid.Nodata)
	if _, err := Composite(raster(), []*grid.Float{other}, nil, DefaultThresholds()); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Composite(raster(), nil, other, DefaultThresholds()); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidExtent(t *testing.T) {
	class := raster(0, 4, 9, -6666)
	class.Nodata = -6666
	if diff := cmp.Diff([]bool{false, true, false, false}, ValidExtent(class)); diff != "" {
		t.Error(diff)
	}
}

// 仅陆地标记的像元：过滤产品为无效值，未过滤产品保留插值
func TestApplyTerrestrialOnly(t *testing.T) {
	elev := raster(26.5, 1.25, 2, 3)
	uncert := raster(0.1, 0.2, math.NaN(), 0.4)
	m, err := Composite(elev, nil, raster(0, 0, 0, 0), DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	p, err := Apply(elev, uncert, []bool{true, true, true, false}, m)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{grid.Nodata, 1.25, 2, grid.Nodata}, p.Filtered.Data); diff != "" {
		t.Errorf("filtered (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{26.5, 1.25, 2, grid.Nodata}, p.Unfiltered.Data); diff != "" {
		t.Errorf("unfiltered (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.1, 0.2, grid.Nodata, grid.Nodata}, p.Uncertainty.Data); diff != "" {
		t.Errorf("uncertainty (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int16{1, grid.Nodata, grid.Nodata, grid.Nodata}, p.Mask.Data); diff != "" {
		t.Errorf("mask (-want +got):\n%s", diff)
	}
}

func TestApplyShapeMismatch(t *testing.T) {
	m, _ := Composite(raster(), nil, nil, DefaultThresholds())
	if _, err := Apply(raster(), raster(), []bool{true}, m); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v", err)
	}
}
