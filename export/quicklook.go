package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/wgdzlh/nidem/contour"
	"github.com/wgdzlh/nidem/grid"
)

const quicklookSize = 16 * vg.Centimeter

// WriteQuicklook 按边界值着色绘制等值线预览图
func WriteQuicklook(path string, tile grid.Tile, set contour.Set) (err error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("NIDEM contours %d %s", tile.ID, tile.Tag)
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	ext := tile.Geo.Extent()
	p.X.Min, p.X.Max = ext[0], ext[2]
	p.Y.Min, p.Y.Max = ext[1], ext[3]
	for i, level := range set.Levels() {
		for j, ls := range set.Lines(level) {
			xys := make(plotter.XYs, len(ls))
			for k, pt := range ls {
				xys[k].X, xys[k].Y = pt.X, pt.Y
			}
			var l *plotter.Line
			if l, err = plotter.NewLine(xys); err != nil {
				return
			}
			l.LineStyle.Color = plotutil.Color(i)
			l.LineStyle.Width = vg.Points(1)
			p.Add(l)
			if j == 0 {
				p.Legend.Add(fmt.Sprintf("%.1f", level), l)
			}
		}
	}
	err = p.Save(quicklookSize, quicklookSize, path)
	return
}
