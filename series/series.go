// Package series builds the exact and approximate curves over a range of
// rounds, for charts, tables and exported reports.
package series

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/samber/lo"

	"github.com/domino14/dicegame/cache"
	"github.com/domino14/dicegame/model"
	"github.com/domino14/dicegame/pricing"
)

const (
	// memoryFraction of the machine's memory may be spent on one series.
	memoryFraction = 0.125
	// bytesPerPoint covers the three float slices of a series.
	bytesPerPoint = 3 * 8
	// fallbackMaxPoints applies when the total memory can't be determined.
	fallbackMaxPoints = 1 << 24
	// minTableRounds is the smallest table kept in the cache.
	minTableRounds = 1 << 10
	// maxCachedRounds is the largest table kept in the cache. Ranges ending
	// beyond it get a table of their own window.
	maxCachedRounds = 1 << 20
)

// tables holds value tables by size. Sizes are powers of two so a table
// serves every shorter range too.
var tables = cache.New("tables", pricing.NewTable)

// tableFor returns a table holding rounds first-1..end-1.
func tableFor(first, end int) (*pricing.Table, error) {
	if end-1 > maxCachedRounds {
		return pricing.NewTableRange(first, end)
	}
	size := minTableRounds
	for size < end-1 {
		size <<= 1
	}
	return tables.Get(size)
}

var titles = map[model.Kind]string{
	model.KindValueContinuous: "Expected value of n rolls vs continuous model",
	model.KindPriceContinuous: "Fair price of n-th roll vs continuous model",
	model.KindPriceDiscrete:   "Fair price of n-th roll vs discrete model",
}

var modelLabels = map[model.Kind]string{
	model.KindValueContinuous: "Continuous model",
	model.KindPriceContinuous: "Continuous model",
	model.KindPriceDiscrete:   "Discrete model",
}

// HLine is a constant reference line drawn across a chart.
type HLine struct {
	Label string  `yaml:"label"`
	Y     float64 `yaml:"y"`
}

// Series holds the exact curve and one approximation over rounds
// [First, First+len(Xs)).
type Series struct {
	Title      string
	Kind       model.Kind
	Params     model.Params
	First      int
	Xs         []float64
	Exact      []float64
	Model      []float64
	ExactLabel string
	ModelLabel string
	HLines     []HLine
}

// MaxPoints is the largest series Build accepts on this machine.
func MaxPoints() int {
	total := memory.TotalMemory()
	if total == 0 {
		return fallbackMaxPoints
	}
	return int(float64(total) * memoryFraction / bytesPerPoint)
}

// Build evaluates the exact curve and the model of the given kind for
// rounds first..end-1. Price models need first >= 1.
func Build(first, end int, kind model.Kind, p model.Params) (*Series, error) {
	if first < 0 || end <= first {
		return nil, fmt.Errorf("%w: empty or negative range [%d, %d)", pricing.ErrInvalidArgument, first, end)
	}
	if kind.IsPrice() && first < 1 {
		return nil, fmt.Errorf("%w: prices start at round 1, got %d", pricing.ErrInvalidArgument, first)
	}
	if n := end - first; n > MaxPoints() {
		return nil, fmt.Errorf("%w: %d points exceeds the limit of %d on this machine",
			pricing.ErrInvalidArgument, n, MaxPoints())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tbl, err := tableFor(first, end)
	if err != nil {
		return nil, err
	}
	var exact []float64
	if kind.IsPrice() {
		exact, err = tbl.Prices(first, end)
	} else {
		exact, err = tbl.Values(first, end)
	}
	if err != nil {
		return nil, err
	}

	xs := lo.Map(lo.RangeFrom(first, end-first), func(n int, _ int) float64 {
		return float64(n)
	})
	s := &Series{
		Title:      titles[kind],
		Kind:       kind,
		Params:     p,
		First:      first,
		Xs:         xs,
		Exact:      exact,
		Model:      p.Evaluate(kind, xs),
		ExactLabel: "True value",
		ModelLabel: modelLabels[kind],
	}
	if kind == model.KindValueContinuous {
		s.HLines = []HLine{
			{Label: fmt.Sprintf("y = %g", pricing.StartValue), Y: pricing.StartValue},
			{Label: fmt.Sprintf("y = %g", p.Asymptote), Y: p.Asymptote},
		}
	}
	return s, nil
}

func (s *Series) Len() int {
	return len(s.Xs)
}

// Errors compares the model against the exact curve.
func (s *Series) Errors() (model.ErrorSummary, error) {
	return model.Compare(s.Exact, s.Model)
}

// Digest is an xxhash of the series values. Two series with equal digests
// hold bit-identical numbers.
func (s *Series) Digest() uint64 {
	buf := make([]byte, 0, 8*3*len(s.Xs))
	for _, vals := range [][]float64{s.Xs, s.Exact, s.Model} {
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return xxhash.Sum64(buf)
}
