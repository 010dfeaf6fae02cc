package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/domino14/dicegame/stats"
)

// ErrorSummary describes how far an approximation is from the exact curve.
type ErrorSummary struct {
	Points int `yaml:"points"`
	// MaxAbs is the largest absolute deviation, at index ArgMax.
	MaxAbs float64 `yaml:"max_abs"`
	ArgMax int     `yaml:"arg_max"`
	RMSE   float64 `yaml:"rmse"`
	// Bias and Spread are the mean and standard deviation of the signed
	// error approx - exact.
	Bias   float64 `yaml:"bias"`
	Spread float64 `yaml:"spread"`
}

func (e ErrorSummary) String() string {
	return fmt.Sprintf("points=%d max|err|=%.6g (at %d) rmse=%.6g bias=%.6g spread=%.6g",
		e.Points, e.MaxAbs, e.ArgMax, e.RMSE, e.Bias, e.Spread)
}

// Compare summarizes the error of approx against exact, element by element.
func Compare(exact, approx []float64) (ErrorSummary, error) {
	if len(exact) != len(approx) {
		return ErrorSummary{}, fmt.Errorf("series lengths differ: %d exact, %d approx",
			len(exact), len(approx))
	}
	if len(exact) == 0 {
		return ErrorSummary{}, errors.New("no points to compare")
	}
	diff := make([]float64, len(exact))
	floats.SubTo(diff, approx, exact)

	st := &stats.Statistic{}
	for _, d := range diff {
		st.Push(d)
	}
	abs := make([]float64, len(diff))
	for i, d := range diff {
		abs[i] = math.Abs(d)
	}
	argmax := floats.MaxIdx(abs)
	return ErrorSummary{
		Points: len(exact),
		MaxAbs: abs[argmax],
		ArgMax: argmax,
		RMSE:   floats.Distance(approx, exact, 2) / math.Sqrt(float64(len(exact))),
		Bias:   st.Mean(),
		Spread: st.Stdev(),
	}, nil
}
