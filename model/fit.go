package model

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/optimize"

	"github.com/domino14/dicegame/pricing"
)

// minFitPoints is the number of free parameters in the value model.
const minFitPoints = 3

// FitResult is the outcome of fitting the continuous value model.
type FitResult struct {
	Params      Params  `yaml:"params"`
	Before      float64 `yaml:"rmse_before"`
	After       float64 `yaml:"rmse_after"`
	Evaluations int     `yaml:"evaluations"`
}

// Fit adjusts Asymptote, Amplitude and Decay of the continuous value model
// to minimize the squared error against E(n) for n in [lo, hi). FirstPrice
// and Ratio are carried over from start.
func Fit(lo, hi int, start Params) (FitResult, error) {
	if lo < 0 || hi-lo < minFitPoints {
		return FitResult{}, fmt.Errorf("%w: fit range [%d, %d) needs at least %d rounds",
			pricing.ErrInvalidArgument, lo, hi, minFitPoints)
	}
	if err := start.Validate(); err != nil {
		return FitResult{}, err
	}
	tbl, err := pricing.NewTableRange(lo, hi)
	if err != nil {
		return FitResult{}, err
	}
	exact, err := tbl.Values(lo, hi)
	if err != nil {
		return FitResult{}, err
	}

	withX := func(x []float64) Params {
		p := start
		p.Asymptote, p.Amplitude, p.Decay = x[0], x[1], x[2]
		return p
	}
	sse := func(x []float64) float64 {
		p := withX(x)
		if p.Decay <= 0 {
			return math.MaxFloat64
		}
		var sum float64
		for i, e := range exact {
			d := p.ValueContinuous(float64(lo+i)) - e
			sum += d * d
		}
		return sum
	}

	x0 := []float64{start.Asymptote, start.Amplitude, start.Decay}
	n := float64(len(exact))
	before := math.Sqrt(sse(x0) / n)

	problem := optimize.Problem{Func: sse}
	settings := &optimize.Settings{FuncEvaluations: 20000}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if result == nil {
		return FitResult{}, fmt.Errorf("fitting value model: %w", err)
	}
	if err != nil {
		// Evaluation limits still leave the best point found so far.
		log.Debug().Err(err).Str("status", result.Status.String()).Msg("fit-stopped-early")
	}
	fitted := withX(result.X)
	after := math.Sqrt(result.F / n)
	log.Debug().Float64("asymptote", fitted.Asymptote).Float64("amplitude", fitted.Amplitude).
		Float64("decay", fitted.Decay).Float64("rmse", after).Msg("fit-done")

	return FitResult{
		Params:      fitted,
		Before:      before,
		After:       after,
		Evaluations: result.Stats.FuncEvaluations,
	}, nil
}
