package stats

import "math"

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean/variance accumulator (Welford). It also
// tracks the extremes of the observed values.
type Statistic struct {
	n    int
	last float64
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.n++
	if s.n == 1 {
		s.mean = val
		s.m2 = 0
		s.min, s.max = val, val
		return
	}
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
	s.min = math.Min(s.min, val)
	s.max = math.Max(s.max, val)
}

// Merge folds the observations of o into s, as if they had been pushed one
// by one (Chan et al. pairwise update). Last is taken from o when o is not
// empty.
func (s *Statistic) Merge(o *Statistic) {
	if o.n == 0 {
		return
	}
	if s.n == 0 {
		*s = *o
		return
	}
	n := s.n + o.n
	delta := o.mean - s.mean
	s.mean += delta * float64(o.n) / float64(n)
	s.m2 += o.m2 + delta*delta*float64(s.n)*float64(o.n)/float64(n)
	s.min = math.Min(s.min, o.min)
	s.max = math.Max(s.max, o.max)
	s.last = o.last
	s.n = n
}

func (s *Statistic) Mean() float64 {
	if s.n > 0 {
		return s.mean
	}
	return 0.0
}

func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64 {
	return s.last
}

func (s *Statistic) Min() float64 {
	return s.min
}

func (s *Statistic) Max() float64 {
	return s.max
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

// HalfWidth is the half width of the confidence interval around the mean
// for the given z-value.
func (s *Statistic) HalfWidth(z float64) float64 {
	return z * s.StandardError()
}

func (s *Statistic) Iterations() int {
	return s.n
}
