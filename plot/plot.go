// Package plot renders series as comparison charts.
package plot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/domino14/dicegame/model"
	"github.com/domino14/dicegame/series"
)

const (
	DefaultWidth  = 20 * vg.Inch
	DefaultHeight = 10 * vg.Inch
)

var supportedExt = []string{".png", ".svg", ".pdf", ".jpg", ".jpeg", ".eps", ".tif", ".tiff"}

// Chart is a series with the y range it should be shown in.
type Chart struct {
	Series *series.Series
	YMin   float64
	YMax   float64
	Width  vg.Length
	Height vg.Length
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// Plot builds the chart without writing it anywhere.
func (c Chart) Plot() (*gplot.Plot, error) {
	s := c.Series
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("chart has no data")
	}
	if c.YMax <= c.YMin {
		return nil, fmt.Errorf("empty y range [%v, %v]", c.YMin, c.YMax)
	}
	p := gplot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = "n"
	p.Add(plotter.NewGrid())

	exact, err := plotter.NewLine(xys(s.Xs, s.Exact))
	if err != nil {
		return nil, err
	}
	exact.LineStyle.Color = plotutil.Color(0)
	exact.LineStyle.Width = vg.Points(2)
	approx, err := plotter.NewLine(xys(s.Xs, s.Model))
	if err != nil {
		return nil, err
	}
	approx.LineStyle.Color = plotutil.Color(1)
	approx.LineStyle.Width = vg.Points(2)
	p.Add(exact, approx)
	p.Legend.Add(s.ExactLabel, exact)
	p.Legend.Add(s.ModelLabel, approx)

	// Reference lines span the whole x range, one step beyond each end.
	x0, x1 := s.Xs[0]-1, s.Xs[len(s.Xs)-1]+1
	for i, h := range s.HLines {
		hl, err := plotter.NewLine(plotter.XYs{{X: x0, Y: h.Y}, {X: x1, Y: h.Y}})
		if err != nil {
			return nil, err
		}
		hl.LineStyle.Color = plotutil.Color(2 + i)
		hl.LineStyle.Dashes = plotutil.Dashes(1)
		p.Add(hl)
		p.Legend.Add(h.Label, hl)
	}
	p.Legend.Top = true

	p.Y.Min, p.Y.Max = c.YMin, c.YMax
	p.X.Min, p.X.Max = x0, x1
	return p, nil
}

// Render draws the chart to path. The format follows the file extension.
func Render(path string, c Chart) error {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range supportedExt {
		if e == ext {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported chart format %q", ext)
	}
	p, err := c.Plot()
	if err != nil {
		return err
	}
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := p.Save(w, h, path); err != nil {
		return err
	}
	log.Debug().Str("path", path).Str("title", c.Series.Title).Msg("chart-rendered")
	return nil
}

// Compare builds the series for kind over [first, end) and wraps it in a
// chart with the given y range.
func Compare(kind model.Kind, first, end int, ymin, ymax float64, p model.Params) (Chart, error) {
	s, err := series.Build(first, end, kind, p)
	if err != nil {
		return Chart{}, err
	}
	return Chart{Series: s, YMin: ymin, YMax: ymax}, nil
}

func ValueVsContinuous(first, end int, ymin, ymax float64, p model.Params) (Chart, error) {
	return Compare(model.KindValueContinuous, first, end, ymin, ymax, p)
}

func PriceVsContinuous(first, end int, ymin, ymax float64, p model.Params) (Chart, error) {
	return Compare(model.KindPriceContinuous, first, end, ymin, ymax, p)
}

func PriceVsDiscrete(first, end int, ymin, ymax float64, p model.Params) (Chart, error) {
	return Compare(model.KindPriceDiscrete, first, end, ymin, ymax, p)
}
