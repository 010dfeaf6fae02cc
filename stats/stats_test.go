package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		scores []int
		mean   float64
		stdev  float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, score := range c.scores {
			s.Push(float64(score))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
	}
}

func TestMerge(t *testing.T) {
	is := is.New(t)
	scores := []float64{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}
	whole := &Statistic{}
	left := &Statistic{}
	right := &Statistic{}
	for i, v := range scores {
		whole.Push(v)
		if i < 4 {
			left.Push(v)
		} else {
			right.Push(v)
		}
	}
	left.Merge(right)
	is.Equal(left.Iterations(), whole.Iterations())
	is.True(FuzzyEqual(left.Mean(), whole.Mean()))
	is.True(FuzzyEqual(left.Stdev(), whole.Stdev()))
	is.Equal(left.Min(), 10.0)
	is.Equal(left.Max(), 124.0)
	is.Equal(left.Last(), 19.0)

	empty := &Statistic{}
	empty.Merge(whole)
	is.True(FuzzyEqual(empty.Mean(), 47.2))
	whole.Merge(&Statistic{})
	is.Equal(whole.Iterations(), 10)
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(Z95, 1.959963984540054))
	is.True(FuzzyEqual(Z99, 2.5758293035489004))
	is.True(Z98 > Z95 && Z98 < Z99)
	is.True(Contains(10, 1, Z95, 11.9))
	is.True(!Contains(10, 1, Z95, 12.1))
}

func TestHalfWidth(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	is.Equal(s.StandardError(), 0.0)
	for _, v := range []float64{1, 2, 3, 4} {
		s.Push(v)
	}
	// sample variance 5/3, stderr sqrt(5/12)
	is.True(FuzzyEqual(s.HalfWidth(2), 2*0.6454972243679028))
}
