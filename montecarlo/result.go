package montecarlo

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/domino14/dicegame/stats"
)

// Result summarizes a finished simulation.
type Result struct {
	RunID      string
	Rounds     int
	Iterations int
	// Exact and ExactRolls are what the simulation should converge to.
	Exact      float64
	ExactRolls float64
	Payoff     stats.Statistic
	Rolls      stats.Statistic
	// Z is the z-value used for the reported confidence intervals.
	Z       float64
	Stopped StopReason
	Elapsed time.Duration

	payoffSamples []float64
	rollSamples   []float64
}

// HalfWidth is the half width of the payoff confidence interval.
func (r *Result) HalfWidth() float64 {
	return r.Payoff.HalfWidth(r.Z)
}

// Consistent reports whether the exact value lies within the confidence
// interval of the simulated mean payoff.
func (r *Result) Consistent() bool {
	if r.Iterations < 2 {
		return false
	}
	return stats.Contains(r.Payoff.Mean(), r.Payoff.StandardError(), r.Z, r.Exact)
}

// RollsConsistent is Consistent for the number of rolls taken.
func (r *Result) RollsConsistent() bool {
	if r.Iterations < 2 {
		return false
	}
	return stats.Contains(r.Rolls.Mean(), r.Rolls.StandardError(), r.Z, r.ExactRolls)
}

// PayoffHistogram bins the sampled payoffs, one bin per face.
func (r *Result) PayoffHistogram() histogram.Histogram {
	if len(r.payoffSamples) == 0 || r.Payoff.Min() == r.Payoff.Max() {
		return histogram.Histogram{}
	}
	return histogram.Hist(6, r.payoffSamples)
}

// RollsHistogram bins the sampled number of rolls per game.
func (r *Result) RollsHistogram(bins int) histogram.Histogram {
	if len(r.rollSamples) == 0 || r.Rolls.Min() == r.Rolls.Max() {
		return histogram.Histogram{}
	}
	return histogram.Hist(bins, r.rollSamples)
}

// Samples is the number of raw games kept for the histograms.
func (r *Result) Samples() int {
	return len(r.payoffSamples)
}

func (r *Result) String() string {
	var ss strings.Builder
	fmt.Fprintf(&ss, "Simulated %d games of up to %d rolls (stopped: %s, %v)\n",
		r.Iterations, r.Rounds, r.Stopped, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&ss, "  %-8s %12s %12s %12s %12s\n", "", "exact", "mean", "stderr", "±ci")
	fmt.Fprintf(&ss, "  %-8s %12.6f %12.6f %12.6f %12.6f\n", "payoff",
		r.Exact, r.Payoff.Mean(), r.Payoff.StandardError(), r.HalfWidth())
	fmt.Fprintf(&ss, "  %-8s %12.6f %12.6f %12.6f %12.6f\n", "rolls",
		r.ExactRolls, r.Rolls.Mean(), r.Rolls.StandardError(), r.Rolls.HalfWidth(r.Z))
	verdict := "inside"
	if !r.Consistent() {
		verdict = "OUTSIDE"
	}
	fmt.Fprintf(&ss, "  exact value is %s the confidence interval (z=%.3f)\n", verdict, r.Z)
	return ss.String()
}

// WriteHistograms prints text histograms of the payoff and roll samples.
func (r *Result) WriteHistograms(w io.Writer, width int) error {
	if r.Samples() == 0 {
		_, err := io.WriteString(w, "no samples\n")
		return err
	}
	if _, err := io.WriteString(w, "Payoff:\n"); err != nil {
		return err
	}
	if err := writeHistogram(w, r.Payoff, r.PayoffHistogram(), width); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "Rolls:\n"); err != nil {
		return err
	}
	return writeHistogram(w, r.Rolls, r.RollsHistogram(min(r.Rounds, 15)), width)
}

func writeHistogram(w io.Writer, st stats.Statistic, h histogram.Histogram, width int) error {
	// A single distinct value leaves nothing to bin.
	if st.Min() == st.Max() {
		_, err := fmt.Fprintf(w, "all samples equal %.1f\n", st.Min())
		return err
	}
	return histogram.Fprintf(w, h, histogram.Linear(width), func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	})
}
