package pricing

import (
	"fmt"
	"math/big"
)

// MaxRatRounds bounds the exact rational evaluators. Denominators grow as
// 6^n, so past this the float evaluators are the only practical path.
const MaxRatRounds = 4096

var (
	ratOne      = big.NewRat(1, 1)
	ratFiveSix  = big.NewRat(5, 6)
	ratEleven6  = big.NewRat(11, 6)
	ratTwoThird = big.NewRat(2, 3)
	ratFifteen6 = big.NewRat(15, 6)
	ratHalf     = big.NewRat(1, 2)
	ratSixth    = big.NewRat(1, 6)
)

func checkRatRounds(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: round index %d is negative", ErrInvalidArgument, n)
	}
	if n > MaxRatRounds {
		return fmt.Errorf("%w: %d rounds exceeds the exact evaluator limit of %d",
			ErrInvalidArgument, n, MaxRatRounds)
	}
	return nil
}

// MthTossRat is MthToss in exact arithmetic.
func MthTossRat(m int) *big.Rat {
	a := big.NewRat(7, 2)
	for i := 0; i < m; i++ {
		a.Mul(a, ratFiveSix)
		a.Add(a, ratOne)
	}
	return a
}

func nestRat(inner *big.Rat) *big.Rat {
	t := new(big.Rat).Set(inner)
	for i := 0; i < 4; i++ {
		t.Mul(t, ratTwoThird)
		t.Add(t, ratEleven6)
	}
	t.Mul(t, ratHalf)
	return t.Add(t, ratFifteen6)
}

// ExactValueRat is ExactValue carried out in rational arithmetic.
func ExactValueRat(n int) (*big.Rat, error) {
	if err := checkRatRounds(n); err != nil {
		return nil, err
	}
	if n <= PrefixRounds {
		return new(big.Rat).Set(baseValues[n]), nil
	}
	return nestRat(MthTossRat(n - PrefixRounds)), nil
}

// DeriveValueRat computes E(n) from the game rules alone, without the
// hardcoded constants. For every j <= n it runs backward induction over the
// thresholds E(1)..E(j-1): the last roll is worth 7/2, and after roll k a
// face f is kept if f > E(k), otherwise the value of continuing is taken.
// It costs O(n^2) rational operations.
func DeriveValueRat(n int) (*big.Rat, error) {
	values, err := DeriveValuesRat(n)
	if err != nil {
		return nil, err
	}
	return values[n], nil
}

// DeriveValuesRat returns E(0)..E(n) as derived by DeriveValueRat.
func DeriveValuesRat(n int) ([]*big.Rat, error) {
	if err := checkRatRounds(n); err != nil {
		return nil, err
	}
	faces := make([]*big.Rat, 7)
	for f := 1; f <= 6; f++ {
		faces[f] = big.NewRat(int64(f), 1)
	}
	values := make([]*big.Rat, n+1)
	values[0] = new(big.Rat)
	for j := 1; j <= n; j++ {
		v := big.NewRat(7, 2)
		for k := j - 1; k >= 1; k-- {
			sum := new(big.Rat)
			for f := 1; f <= 6; f++ {
				if faces[f].Cmp(values[k]) > 0 {
					sum.Add(sum, faces[f])
				} else {
					sum.Add(sum, v)
				}
			}
			v = sum.Mul(sum, ratSixth)
		}
		values[j] = v
	}
	return values, nil
}
