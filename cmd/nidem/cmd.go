package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wgdzlh/nidem"
	"github.com/wgdzlh/nidem/catalog"
	"github.com/wgdzlh/nidem/config"
	"github.com/wgdzlh/nidem/export"
	"github.com/wgdzlh/nidem/log"
	"github.com/wgdzlh/nidem/pipeline"
	"github.com/wgdzlh/nidem/tide"
	"github.com/wgdzlh/nidem/uncertainty"
)

const logTag = "nidem:"

type flags struct {
	config    string
	logLevel  string
	quicklook bool
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "nidem <polygon_id>",
		Short:         "Generate the intertidal elevation model for one ITEM polygon",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid polygon id %q: %w", args[0], err)
			}
			c, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c, id)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", "nidem.toml", "path to the TOML config file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
	root.Flags().BoolVar(&f.quicklook, "quicklook", false, "also write a PNG quicklook of the contours")
	root.AddCommand(newCatalogCmd(&f))
	return root
}

func loadConfig(cmd *cobra.Command, f flags) (c *config.Config, err error) {
	if c, err = config.Load(f.config); err != nil {
		return
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = f.logLevel
	}
	if err = log.SetLevel(c.LogLevel); err != nil {
		err = fmt.Errorf("%w: log_level %q", config.ErrInvalidConfig, c.LogLevel)
		return
	}
	if f.quicklook {
		c.Output.Quicklook = true
	}
	return
}

func newOracle(t config.Tide, id int) (uncertainty.Oracle, error) {
	switch t.Model {
	case config.TIDE_MODEL_HTTP:
		cl := tide.NewClient(t.URL)
		if t.BatchSize > 0 {
			cl.BatchSize = t.BatchSize
		}
		return cl, nil
	default:
		return tide.LoadHarmonic(filepath.Join(t.ConstituentDir, fmt.Sprintf("%d.csv", id)))
	}
}

// 优先使用预计算的不确定度表，否则由观测目录与潮汐模型现算
func newUncertainty(c *config.Config, id int) (p pipeline.UncertaintyProvider, closer func() error, err error) {
	closer = func() error { return nil }
	if c.Item.UncertaintyTable != "" {
		var tb pipeline.Table
		if tb, err = pipeline.LoadTable(c.Item.UncertaintyTable); err != nil {
			return
		}
		p = pipeline.TableUncertainty{Table: tb}
		return
	}
	w, err := c.Window()
	if err != nil {
		return
	}
	ps, err := c.Products()
	if err != nil {
		return
	}
	oracle, err := newOracle(c.Tide, id)
	if err != nil {
		return
	}
	db, err := catalog.Open(c.Uncertainty.Catalog)
	if err != nil {
		return
	}
	p = uncertainty.NewEstimator(db, oracle, uncertainty.WithWindow(w), uncertainty.WithProducts(ps...))
	closer = db.Close
	return
}

func run(ctx context.Context, c *config.Config, id int) (err error) {
	g := nidem.NewGdalToolbox()
	src := nidem.NewItemSource(g, nidem.ItemPaths{
		Relative:   c.Item.RelativePath,
		Confidence: c.Item.ConfPath,
		Polygons:   c.Item.PolygonPath,
		Elevation:  c.Masking.Elevation,
		Bathymetry: c.Masking.Bathymetry,
	})
	heights, err := pipeline.LoadTable(filepath.Join(c.Item.OffsetPath, pipeline.HeightTableName))
	if err != nil {
		return
	}

	uncert, closeUncert, err := newUncertainty(c, id)
	if err != nil {
		return
	}
	defer closeUncert()

	exp := export.NewExporter(c.Output.Dir, g)
	exp.Metadata = c.Output.Metadata
	exp.Quicklook = c.Output.Quicklook

	r := pipeline.NewRunner(src, heights, uncert, exp)
	r.FillRadius = c.Contour.FillRadius
	r.MinVertices = c.Contour.MinVertices
	r.Thresholds = c.Masking.Thresholds

	res, err := r.Run(ctx, id)
	if err != nil {
		log.Error(logTag+"polygon failed", zap.Int("id", id), zap.Error(err))
		return
	}
	log.Info(logTag+"outputs written", zap.Int("id", id), zap.String("dir", c.Output.Dir),
		zap.Strings("files", res.Manifest.Files()), zap.Bool("degenerate", res.Degenerate))
	return
}

func newCatalogCmd(f *flags) *cobra.Command {
	cat := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the observation catalog",
	}
	cat.AddCommand(&cobra.Command{
		Use:   "import <csv>...",
		Short: "Import acquisitions from CSV files (id,product,center_time,min_x,min_y,max_x,max_y)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			return importCSV(cmd.Context(), c.Uncertainty.Catalog, args...)
		},
	})
	return cat
}

func importCSV(ctx context.Context, dbPath string, files ...string) (err error) {
	if dbPath == "" {
		return fmt.Errorf("%w: uncertainty.catalog is empty", config.ErrInvalidConfig)
	}
	db, err := catalog.Open(dbPath)
	if err != nil {
		return
	}
	defer db.Close()
	for _, file := range files {
		var (
			fp   *os.File
			acqs []catalog.Acquisition
		)
		if fp, err = os.Open(file); err != nil {
			return
		}
		acqs, err = catalog.ReadCSV(fp)
		fp.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err = db.Add(ctx, acqs...); err != nil {
			return
		}
		log.Info(logTag+"acquisitions imported", zap.String("csv", file), zap.Int("count", len(acqs)))
	}
	return
}
