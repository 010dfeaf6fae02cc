// Package pricing computes the expected payoff of the fair-priced die game
// and the fair price of each additional roll.
//
// In an n-roll game the player stops after roll k (k < n) whenever the face
// is strictly greater than E(k), and otherwise pays for another roll. The
// last roll is always kept. E(n) is the expected payoff of that strategy and
// the fair price of the n-th roll is E(n) - E(n-1).
package pricing

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

var ErrInvalidArgument = errors.New("invalid argument")

const (
	// StartValue is the expectation of a single roll of a fair die.
	StartValue = 3.5
	// PrefixRounds is the number of rounds with hardcoded values. From the
	// 7th roll on, the threshold exceeds 5 and only a six stops the game.
	PrefixRounds = 6
	// Ceiling is the largest face of the die; no expectation reaches it.
	Ceiling = 6.0
)

// baseValues are E(0)..E(6) as exact rationals.
var baseValues = [PrefixRounds + 1]*big.Rat{
	new(big.Rat),
	big.NewRat(7, 2),
	big.NewRat(17, 4),
	big.NewRat(55, 12),
	big.NewRat(173, 36),
	big.NewRat(535, 108),
	big.NewRat(1637, 324),
}

var baseFloats [PrefixRounds + 1]float64

// Limit is lim E(n), the nested prefix evaluated with the inner sequence at
// its fixed point of 6.
var Limit = big.NewRat(1717, 324)

func init() {
	for i, r := range baseValues {
		baseFloats[i], _ = r.Float64()
	}
}

// BaseValue returns a copy of the hardcoded rational E(n) for 0 <= n <= 6.
func BaseValue(n int) (*big.Rat, error) {
	if n < 0 || n > PrefixRounds {
		return nil, fmt.Errorf("%w: no base value for round %d", ErrInvalidArgument, n)
	}
	return new(big.Rat).Set(baseValues[n]), nil
}

// step advances the inner sequence by one roll.
func step(a float64) float64 {
	return 1 + 5*a/6
}

// MthToss evaluates the inner "roll until six" sequence: starting from 3.5,
// apply a = 1 + 5a/6 m times. m <= 0 returns 3.5. The sequence reaches a
// floating point fixed point after a few hundred steps, so any m is cheap.
func MthToss(m int) float64 {
	a := StartValue
	for i := 0; i < m; i++ {
		next := step(a)
		if next == a {
			break
		}
		a = next
	}
	return a
}

// MthTossClosed is the closed form of MthToss, 6 - 2.5*(5/6)^m. It agrees
// with MthToss up to floating point rounding and costs O(1).
func MthTossClosed(m int) float64 {
	if m < 0 {
		m = 0
	}
	return Ceiling - (Ceiling-StartValue)*math.Pow(5.0/6, float64(m))
}

// nest wraps the inner sequence value in the four "stop on 5 or 6" rounds
// (rolls 2 to 5) and the opening "stop on 4, 5 or 6" round.
func nest(inner float64) float64 {
	t := inner
	for i := 0; i < 4; i++ {
		t = 11.0/6 + 2.0/3*t
	}
	return 15.0/6 + t/2
}

// ExactValue returns E(n), the expected payoff of the n-roll game.
func ExactValue(n int) (float64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: round index %d is negative", ErrInvalidArgument, n)
	}
	if n <= PrefixRounds {
		return baseFloats[n], nil
	}
	return nest(MthToss(n - PrefixRounds)), nil
}

// FairPrice returns the marginal price of the n-th roll, E(n) - E(n-1).
func FairPrice(n int) (float64, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: fair price needs n >= 1, got %d", ErrInvalidArgument, n)
	}
	cur, err := ExactValue(n)
	if err != nil {
		return 0, err
	}
	prev, err := ExactValue(n - 1)
	if err != nil {
		return 0, err
	}
	return cur - prev, nil
}

// Thresholds returns the stop thresholds E(1)..E(n-1) for an n-roll game.
// After roll k the player stops if the face is strictly greater than
// thresholds[k-1].
func Thresholds(n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: a game needs at least one roll, got %d", ErrInvalidArgument, n)
	}
	t, err := NewTable(n - 1)
	if err != nil {
		return nil, err
	}
	return t.values[1:], nil
}

// ExpectedRolls returns the expected number of rolls taken in an n-roll
// game under the threshold strategy.
func ExpectedRolls(n int) (float64, error) {
	th, err := Thresholds(n)
	if err != nil {
		return 0, err
	}
	rolls := 1.0
	for k := len(th) - 1; k >= 0; k-- {
		// faces not exceeding the threshold send the player on
		cont := math.Min(math.Floor(th[k]), Ceiling) / Ceiling
		rolls = 1 + cont*rolls
	}
	return rolls, nil
}
