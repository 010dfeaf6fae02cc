package stats

import "gonum.org/v1/gonum/stat/distuv"

var (
	Z95 = ZVal(95)
	Z98 = ZVal(98)
	Z99 = ZVal(99)
)

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	return dist.Quantile(area)
}

// Contains reports whether x lies in mean ± z*stderr.
func Contains(mean, stderr, z, x float64) bool {
	hw := z * stderr
	return x >= mean-hw && x <= mean+hw
}
