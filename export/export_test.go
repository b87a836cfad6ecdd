package export

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/wgdzlh/nidem/contour"
	"github.com/wgdzlh/nidem/grid"
	"github.com/wgdzlh/nidem/mask"
	"github.com/wgdzlh/nidem/utils"
)

var testTile = grid.Tile{
	ID:  33,
	Tag: "130.91_-12.26",
	Geo: grid.Geo{
		Rows:      3,
		Cols:      4,
		Transform: grid.Affine{-100000, 25, 0, -1300000, 0, -25},
		CRS:       `PROJCS["GDA94 / Australian Albers",AUTHORITY["EPSG","3577"]]`,
	},
}

// 以文本形式记录写出的文件，矢量及netCDF同时记录参数
type fakeWriter struct {
	failMask bool
	crs      string
	fields   []contour.Field
	globals  [][2]string
	vars     []Variable
}

func (f *fakeWriter) WriteContours(path string, set contour.Set, crsWKT string, fields ...contour.Field) error {
	f.crs, f.fields = crsWKT, fields
	for _, p := range utils.GetShpSidecars(path) {
		if err := os.WriteFile(p, []byte("shp"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeWriter) WriteNetCDF(path string, geo grid.Geo, globals [][2]string, vars ...Variable) error {
	f.globals, f.vars = globals, vars
	return os.WriteFile(path, []byte("nc"), 0o644)
}

func (f *fakeWriter) WriteFloat32(path string, r *grid.Float) error {
	return os.WriteFile(path, []byte("float"), 0o644)
}

func (f *fakeWriter) WriteInt16(path string, r *grid.Int16) error {
	if f.failMask {
		return errors.New("disk full")
	}
	return os.WriteFile(path, []byte("int16"), 0o644)
}

func testProducts() mask.Products {
	geo := testTile.Geo
	elev := grid.NewFloat(geo, grid.Nodata)
	uncert := grid.NewFloat(geo, grid.Nodata)
	for i := range elev.Data {
		elev.Data[i] = float64(i)/4 - 1
		uncert.Data[i] = 0.1
	}
	elev.Data[0] = 30
	m, _ := mask.Composite(elev, nil, nil, mask.DefaultThresholds())
	ext := make([]bool, geo.Len())
	for i := range ext {
		ext[i] = i != geo.Len()-1
	}
	p, _ := mask.Apply(elev, uncert, ext, m)
	return p
}

func testSet() contour.Set {
	return contour.NewSet(map[float64][]geom.LineString{
		4.5: {{{X: -99990, Y: -1300010}, {X: -99950, Y: -1300030}}},
		5.5: {{{X: -99990, Y: -1300040}, {X: -99930, Y: -1300050}}},
	})
}

func listFiles(t *testing.T, dir string) (files []string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			files = append(files, rel)
		}
		return nil
	})
	require.NoError(t, err)
	return
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, &fakeWriter{})
	e.Quicklook = true
	m, err := e.Export(context.Background(), testTile, testProducts(), testSet(), nil)
	require.NoError(t, err)

	want := []string{
		"geotiff/nidem/NIDEM_33_130.91_-12.26.tif",
		"geotiff/nidem_mask/NIDEM_mask_33_130.91_-12.26.tif",
		"geotiff/nidem_uncertainty/NIDEM_uncertainty_33_130.91_-12.26.tif",
		"geotiff/nidem_unfiltered/NIDEM_unfiltered_33_130.91_-12.26.tif",
		"netcdf/NIDEM_33_130.91_-12.26.nc",
		"quicklook/NIDEM_33_130.91_-12.26.png",
		"shapefile/nidem_contours/NIDEM_contours_33_130.91_-12.26.dbf",
		"shapefile/nidem_contours/NIDEM_contours_33_130.91_-12.26.prj",
		"shapefile/nidem_contours/NIDEM_contours_33_130.91_-12.26.shp",
		"shapefile/nidem_contours/NIDEM_contours_33_130.91_-12.26.shx",
	}
	if diff := cmp.Diff(want, listFiles(t, dir)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, en := range entries {
		require.False(t, strings.HasPrefix(en.Name(), "."), "scratch dir %s left behind", en.Name())
	}
	require.Equal(t, "netcdf/NIDEM_33_130.91_-12.26.nc", m.NetCDF)
}

func TestExportFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, &fakeWriter{failMask: true})
	_, err := e.Export(context.Background(), testTile, testProducts(), testSet(), nil)
	require.Error(t, err)
	require.Empty(t, listFiles(t, dir))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewExporter(dir, &fakeWriter{}).Export(ctx, testTile, testProducts(), testSet(), nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, listFiles(t, dir))
}

func TestExportArchiveContent(t *testing.T) {
	w := &fakeWriter{}
	p := testProducts()
	_, err := NewExporter(t.TempDir(), w).Export(context.Background(), testTile, p, testSet(), nil)
	require.NoError(t, err)

	var names []string
	for _, v := range w.vars {
		names = append(names, v.Name)
	}
	if diff := cmp.Diff([]string{VAR_NIDEM, VAR_MASK, VAR_UNCERTAINTY, VAR_UNFILTERED}, names); diff != "" {
		t.Errorf("variables (-want +got):\n%s", diff)
	}
	require.Same(t, p.Mask, w.vars[1].Int16)
	require.Same(t, p.Filtered, w.vars[0].Float)
	require.Contains(t, w.vars[0].Attrs, [2]string{"valid_range", "{-25,25}"})
	require.Contains(t, w.vars[1].Attrs, [2]string{"valid_range", "{1,3}"})
	require.Contains(t, w.vars[3].Attrs, [2]string{"standard_name", standardNameHeight})

	keys := make([]string, len(w.globals))
	for i, kv := range w.globals {
		keys[i] = kv[0]
	}
	require.True(t, sort.StringsAreSorted(keys), "globals not sorted: %v", keys)
	require.Contains(t, w.globals, [2]string{"crs_wkt", testTile.Geo.CRS})
	require.Contains(t, w.globals, [2]string{"license", DefaultMetadata().License})
	for _, k := range keys {
		require.NotContains(t, []string{"history", "date_created"}, k)
	}
}

func TestExportContourFields(t *testing.T) {
	w := &fakeWriter{}
	fields := []contour.Field{{Name: contour.FIELD_ELEV, Values: map[float64]float64{4.5: -0.35, 5.5: 0.15}}}
	_, err := NewExporter(t.TempDir(), w).Export(context.Background(), testTile, testProducts(), testSet(), fields)
	require.NoError(t, err)
	require.Equal(t, testTile.Geo.CRS, w.crs)
	if diff := cmp.Diff(fields, w.fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
}

func TestManifestFiles(t *testing.T) {
	m := NewManifest(grid.Tile{ID: 1, Tag: "a_b"}, false)
	require.Empty(t, m.Quicklook)
	require.Len(t, m.Files(), 9)
}
