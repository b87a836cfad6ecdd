package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/require"

	"github.com/wgdzlh/nidem/catalog"
	"github.com/wgdzlh/nidem/config"
)

func TestRootCmdInvalidID(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"thirty-three"})
	require.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func TestRootCmdMissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"33", "--config", filepath.Join(t.TempDir(), "none.toml")})
	require.Error(t, cmd.Execute())
}

func TestImportCSV(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "ls8.csv")
	require.NoError(t, os.WriteFile(csvFile, []byte(`id,product,center_time,min_x,min_y,max_x,max_y
x1,ls8,2015-06-01T00:10:00Z,150,-35,152,-33
x2,ls8,2015-06-17T00:10:00Z,150,-35,152,-33
`), 0o644))
	dbPath := filepath.Join(dir, "catalog.db")
	ctx := context.Background()
	require.NoError(t, importCSV(ctx, dbPath, csvFile))

	db, err := catalog.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Find(ctx, "ls8", catalog.TimeRange{
		Start: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
	}, geom.Bounds{Min: geom.Point{X: 151, Y: -34}, Max: geom.Point{X: 151.5, Y: -33.5}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "x1", got[0].ID)

	require.Error(t, importCSV(ctx, "", csvFile))
	require.Error(t, importCSV(ctx, dbPath, filepath.Join(dir, "missing.csv")))
}

func TestNewUncertaintyRejectsBadSettings(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]func(c *config.Config){
		"bad window":  func(c *config.Config) { c.Uncertainty.End = "1980-01-01" },
		"bad date":    func(c *config.Config) { c.Uncertainty.Start = "1990/01/01" },
		"no products": func(c *config.Config) { c.Uncertainty.Products = nil },
		"bad until":   func(c *config.Config) { c.Uncertainty.Products[1].Until = "soon" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := config.Default()
			c.Uncertainty.Catalog = filepath.Join(dir, name+".db")
			c.Tide = config.Tide{Model: config.TIDE_MODEL_HTTP, URL: "http://127.0.0.1:1"}
			mutate(c)
			p, _, err := newUncertainty(c, 33)
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			require.Nil(t, p)
			_, err = os.Stat(c.Uncertainty.Catalog)
			require.True(t, os.IsNotExist(err), "catalog opened before settings were checked")
		})
	}
}
