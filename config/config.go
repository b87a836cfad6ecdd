// Package config 读取TOML格式的运行配置
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wgdzlh/nidem/catalog"
	"github.com/wgdzlh/nidem/contour"
	"github.com/wgdzlh/nidem/export"
	"github.com/wgdzlh/nidem/gapfill"
	"github.com/wgdzlh/nidem/mask"
	"github.com/wgdzlh/nidem/uncertainty"
)

const (
	TIDE_MODEL_HARMONIC = "harmonic"
	TIDE_MODEL_HTTP     = "http"

	dateLayout = "2006-01-02"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	LogLevel    string      `toml:"log_level"`
	Item        Item        `toml:"item"`
	Masking     Masking     `toml:"masking"`
	Contour     Contour     `toml:"contour"`
	Uncertainty Uncertainty `toml:"uncertainty"`
	Tide        Tide        `toml:"tide"`
	Output      Output      `toml:"output"`
}

// ITEM输入
type Item struct {
	RelativePath     string `toml:"relative_path"`     // ITEM_REL_*.tif所在目录
	ConfPath         string `toml:"conf_path"`         // ITEM_STD_*.tif所在目录
	OffsetPath       string `toml:"offset_path"`       // elevation.txt所在目录
	PolygonPath      string `toml:"polygon_path"`      // ITEM多边形shp
	UncertaintyTable string `toml:"uncertainty_table"` // 可选，提供后不再实时估计不确定度
}

type Masking struct {
	Elevation  string          `toml:"elevation"`
	Bathymetry []string        `toml:"bathymetry"`
	Thresholds mask.Thresholds `toml:"thresholds"`
}

type Contour struct {
	MinVertices int `toml:"min_vertices"`
	FillRadius  int `toml:"fill_radius"`
}

type Product struct {
	Name  string `toml:"name"`
	Until string `toml:"until"`
}

type Uncertainty struct {
	Catalog  string    `toml:"catalog"` // sqlite文件
	Start    string    `toml:"start"`
	End      string    `toml:"end"`
	Products []Product `toml:"products"`
}

type Tide struct {
	Model          string `toml:"model"`
	ConstituentDir string `toml:"constituent_dir"` // {id}.csv
	URL            string `toml:"url"`
	BatchSize      int    `toml:"batch_size"`
}

type Output struct {
	Dir       string          `toml:"dir"`
	Quicklook bool            `toml:"quicklook"`
	Metadata  export.Metadata `toml:"metadata"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Masking: Masking{
			Thresholds: mask.DefaultThresholds(),
		},
		Contour: Contour{
			MinVertices: contour.DefaultMinVertices,
			FillRadius:  gapfill.DefaultRadius,
		},
		Uncertainty: Uncertainty{
			Start: uncertainty.DefaultWindow.Start.Format(dateLayout),
			End:   uncertainty.DefaultWindow.End.Format(dateLayout),
			Products: []Product{
				{Name: "ls5"},
				{Name: "ls7", Until: uncertainty.LS7SlcOff.Format(dateLayout)},
				{Name: "ls8"},
			},
		},
		Tide: Tide{
			Model: TIDE_MODEL_HARMONIC,
		},
		Output: Output{
			Metadata: export.DefaultMetadata(),
		},
	}
}

// Load 在默认值基础上解码配置文件，相对路径以配置文件所在目录为基准
func Load(path string) (c *Config, err error) {
	c = Default()
	// 数组表会复用已有元素，只覆盖文件中出现的键，故先清空，未配置时再取默认值
	c.Uncertainty.Products = nil
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		return
	}
	if !md.IsDefined("uncertainty", "products") {
		c.Uncertainty.Products = Default().Uncertainty.Products
	}
	c.resolve(filepath.Dir(path))
	err = c.Validate()
	return
}

func (c *Config) resolve(base string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	abs(&c.Item.RelativePath)
	abs(&c.Item.ConfPath)
	abs(&c.Item.OffsetPath)
	abs(&c.Item.PolygonPath)
	abs(&c.Item.UncertaintyTable)
	abs(&c.Masking.Elevation)
	for i := range c.Masking.Bathymetry {
		abs(&c.Masking.Bathymetry[i])
	}
	abs(&c.Uncertainty.Catalog)
	abs(&c.Tide.ConstituentDir)
	abs(&c.Output.Dir)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, args...)...)
}

func (c *Config) Validate() error {
	for _, kv := range [][2]string{
		{"item.relative_path", c.Item.RelativePath},
		{"item.offset_path", c.Item.OffsetPath},
		{"item.polygon_path", c.Item.PolygonPath},
		{"output.dir", c.Output.Dir},
	} {
		if kv[1] == "" {
			return invalid("%s is required", kv[0])
		}
	}
	th := c.Masking.Thresholds
	if th.MinDepth >= th.MaxElevation {
		return invalid("masking.thresholds.min_depth %v must be below max_elevation %v", th.MinDepth, th.MaxElevation)
	}
	if c.Contour.MinVertices < 2 {
		return invalid("contour.min_vertices %d must be at least 2", c.Contour.MinVertices)
	}
	if c.Contour.FillRadius < 0 {
		return invalid("contour.fill_radius %d is negative", c.Contour.FillRadius)
	}
	if c.Item.UncertaintyTable != "" {
		return nil
	}
	if c.Uncertainty.Catalog == "" {
		return invalid("uncertainty.catalog is required without item.uncertainty_table")
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	if _, err := c.Products(); err != nil {
		return err
	}
	switch c.Tide.Model {
	case TIDE_MODEL_HARMONIC:
		if c.Tide.ConstituentDir == "" {
			return invalid("tide.constituent_dir is required for the harmonic model")
		}
	case TIDE_MODEL_HTTP:
		if c.Tide.URL == "" {
			return invalid("tide.url is required for the http model")
		}
	default:
		return invalid("unknown tide.model %q", c.Tide.Model)
	}
	return nil
}

func parseDate(key, s string) (t time.Time, err error) {
	if t, err = time.Parse(dateLayout, s); err != nil {
		err = invalid("%s: %v", key, err)
	}
	return
}

// 不确定度估计的总时间窗口
func (c *Config) Window() (w catalog.TimeRange, err error) {
	if w.Start, err = parseDate("uncertainty.start", c.Uncertainty.Start); err != nil {
		return
	}
	if w.End, err = parseDate("uncertainty.end", c.Uncertainty.End); err != nil {
		return
	}
	if !w.Start.Before(w.End) {
		err = invalid("uncertainty window %s..%s is empty", c.Uncertainty.Start, c.Uncertainty.End)
	}
	return
}

func (c *Config) Products() (ps []uncertainty.Product, err error) {
	if len(c.Uncertainty.Products) == 0 {
		err = invalid("uncertainty.products is empty")
		return
	}
	for _, p := range c.Uncertainty.Products {
		up := uncertainty.Product{Name: p.Name}
		if p.Until != "" {
			if up.Until, err = parseDate("uncertainty.products.until", p.Until); err != nil {
				return
			}
		}
		ps = append(ps, up)
	}
	return
}
