package montecarlo

import (
	"fmt"
	"strings"

	"github.com/domino14/dicegame/stats"
)

type StoppingCondition int

const (
	StopNone StoppingCondition = iota
	Stop95
	Stop98
	Stop99
)

const DefaultCheckInterval = 5000

func ParseStoppingCondition(s string) (StoppingCondition, error) {
	switch strings.TrimSuffix(strings.TrimSpace(s), "%") {
	case "", "none", "0":
		return StopNone, nil
	case "95":
		return Stop95, nil
	case "98":
		return Stop98, nil
	case "99":
		return Stop99, nil
	}
	return StopNone, fmt.Errorf("stopping condition must be one of none, 95, 98, 99; got %q", s)
}

func (sc StoppingCondition) String() string {
	switch sc {
	case Stop95:
		return "95"
	case Stop98:
		return "98"
	case Stop99:
		return "99"
	}
	return "none"
}

// Z returns the two-tailed z-value of the condition. StopNone reports at
// 95% so results still carry an interval.
func (sc StoppingCondition) Z() float64 {
	switch sc {
	case Stop98:
		return stats.Z98
	case Stop99:
		return stats.Z99
	}
	return stats.Z95
}

// shouldStop is true once the confidence interval around the mean payoff is
// narrower than tolerance on each side.
func shouldStop(payoff *stats.Statistic, sc StoppingCondition, tolerance float64) bool {
	if sc == StopNone || tolerance <= 0 {
		return false
	}
	// Too few samples give a meaningless variance.
	if payoff.Iterations() < 100 {
		return false
	}
	return payoff.HalfWidth(sc.Z()) < tolerance
}
