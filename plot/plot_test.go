package plot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/dicegame/model"
	"github.com/domino14/dicegame/pricing"
)

func TestChartPlot(t *testing.T) {
	is := is.New(t)
	c, err := ValueVsContinuous(1, 100, 3.5, 5.5, model.DefaultParams())
	is.NoErr(err)
	p, err := c.Plot()
	is.NoErr(err)
	is.Equal(p.Title.Text, c.Series.Title)
	is.Equal(p.Y.Min, 3.5)
	is.Equal(p.Y.Max, 5.5)
	is.Equal(p.X.Min, 0.0)
	is.Equal(p.X.Max, 100.0)
}

func TestChartRejectsEmptyRange(t *testing.T) {
	is := is.New(t)
	c, err := PriceVsDiscrete(1, 10, 1, 1, model.DefaultParams())
	is.NoErr(err)
	_, err = c.Plot()
	is.True(err != nil)

	_, err = (Chart{}).Plot()
	is.True(err != nil)
}

func TestCannedChartsValidate(t *testing.T) {
	is := is.New(t)
	_, err := PriceVsContinuous(0, 10, 0, 1, model.DefaultParams())
	is.True(errors.Is(err, pricing.ErrInvalidArgument))
	_, err = ValueVsContinuous(10, 5, 0, 1, model.DefaultParams())
	is.True(errors.Is(err, pricing.ErrInvalidArgument))
}

func TestRender(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	c, err := PriceVsContinuous(1, 100, 0, 1, model.DefaultParams())
	is.NoErr(err)
	c.Width, c.Height = DefaultWidth/4, DefaultHeight/4

	for _, name := range []string{"chart.png", "chart.svg", "nested/chart.pdf"} {
		path := filepath.Join(dir, name)
		is.NoErr(Render(path, c))
		fi, err := os.Stat(path)
		is.NoErr(err)
		is.True(fi.Size() > 0)
	}
	is.True(Render(filepath.Join(dir, "chart.txt"), c) != nil)
}

func TestNotebook(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	paths, err := Notebook(dir, model.DefaultParams())
	is.NoErr(err)
	is.Equal(len(paths), len(NotebookCharts))
	for _, p := range paths {
		_, err := os.Stat(p)
		is.NoErr(err)
	}
}
