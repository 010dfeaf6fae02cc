package plot

import (
	"path/filepath"

	"github.com/domino14/dicegame/model"
)

// Invocation is one canned chart.
type Invocation struct {
	File       string
	Kind       model.Kind
	First, End int
	YMin, YMax float64
}

// NotebookCharts are the fixed charts of the exploration: the whole value
// curve, both price models over the first hundred rounds, and both price
// models again zoomed into the tail.
var NotebookCharts = []Invocation{
	{"value-continuous.png", model.KindValueContinuous, 1, 100, 3.5, 5.5},
	{"price-continuous.png", model.KindPriceContinuous, 1, 100, 0, 1},
	{"price-discrete.png", model.KindPriceDiscrete, 1, 100, 0, 1},
	{"price-continuous-tail.png", model.KindPriceContinuous, 30, 60, 0, 0.001},
	{"price-discrete-tail.png", model.KindPriceDiscrete, 30, 60, 0, 0.001},
}

// Notebook renders every chart in NotebookCharts into dir and returns the
// paths written.
func Notebook(dir string, p model.Params) ([]string, error) {
	paths := make([]string, 0, len(NotebookCharts))
	for _, inv := range NotebookCharts {
		c, err := Compare(inv.Kind, inv.First, inv.End, inv.YMin, inv.YMax, p)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, inv.File)
		if err := Render(path, c); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
