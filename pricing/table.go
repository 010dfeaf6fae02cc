package pricing

import (
	"fmt"

	"github.com/pbnjay/memory"
)

const (
	// tableMemoryFraction of the machine's memory may be spent on one table.
	tableMemoryFraction = 0.125
	// fallbackMaxTableRounds applies when the total memory can't be
	// determined.
	fallbackMaxTableRounds = 1 << 24
)

// MaxTableRounds is the largest number of rounds a single table may hold on
// this machine.
func MaxTableRounds() int {
	total := memory.TotalMemory()
	if total == 0 {
		return fallbackMaxTableRounds
	}
	return int(float64(total) * tableMemoryFraction / 8)
}

// Table holds E(n) for a window of consecutive rounds. Building it costs
// O(hi-lo) once the inner sequence has been advanced to the window, since
// the sequence is stepped once per round instead of being re-evaluated.
type Table struct {
	// first is the round held in values[0].
	first  int
	values []float64
}

// NewTable holds E(0)..E(n).
func NewTable(n int) (*Table, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: table size %d is negative", ErrInvalidArgument, n)
	}
	return NewTableRange(0, n+1)
}

// NewTableRange holds the values of rounds [lo, hi) and, when lo > 0, of
// round lo-1 as well, so every price in the range is available.
func NewTableRange(lo, hi int) (*Table, error) {
	if lo < 0 || hi <= lo {
		return nil, fmt.Errorf("%w: empty or negative table range [%d, %d)", ErrInvalidArgument, lo, hi)
	}
	first := max(lo-1, 0)
	size := hi - first
	if limit := MaxTableRounds(); size > limit {
		return nil, fmt.Errorf("%w: table of %d rounds exceeds the limit of %d on this machine",
			ErrInvalidArgument, size, limit)
	}
	values := make([]float64, size)
	a := StartValue
	for i := range values {
		n := first + i
		switch {
		case n <= PrefixRounds:
			values[i] = baseFloats[n]
			continue
		case i == 0 || n == PrefixRounds+1:
			a = MthToss(n - PrefixRounds)
		default:
			// Same operation as MthToss, so values are bit-identical to
			// ExactValue.
			a = step(a)
		}
		values[i] = nest(a)
	}
	return &Table{first: first, values: values}, nil
}

// First is the smallest n held by the table.
func (t *Table) First() int {
	return t.first
}

// Rounds is the largest n held by the table.
func (t *Table) Rounds() int {
	return t.first + len(t.values) - 1
}

func (t *Table) Value(n int) (float64, error) {
	if n < t.first || n > t.Rounds() {
		return 0, fmt.Errorf("%w: round %d outside table [%d, %d]", ErrInvalidArgument, n, t.first, t.Rounds())
	}
	return t.values[n-t.first], nil
}

func (t *Table) Price(n int) (float64, error) {
	if n < 1 || n <= t.first || n > t.Rounds() {
		return 0, fmt.Errorf("%w: price of round %d outside table [%d, %d]",
			ErrInvalidArgument, n, max(t.first+1, 1), t.Rounds())
	}
	i := n - t.first
	return t.values[i] - t.values[i-1], nil
}

// Values returns a copy of E(lo)..E(hi-1).
func (t *Table) Values(lo, hi int) ([]float64, error) {
	if lo < t.first || hi > t.Rounds()+1 || lo > hi {
		return nil, fmt.Errorf("%w: range [%d, %d) outside table [%d, %d]",
			ErrInvalidArgument, lo, hi, t.first, t.Rounds())
	}
	out := make([]float64, hi-lo)
	copy(out, t.values[lo-t.first:hi-t.first])
	return out, nil
}

// Prices returns the fair prices of rounds lo..hi-1.
func (t *Table) Prices(lo, hi int) ([]float64, error) {
	if lo < 1 || lo <= t.first || hi > t.Rounds()+1 || lo > hi {
		return nil, fmt.Errorf("%w: price range [%d, %d) outside table [%d, %d]",
			ErrInvalidArgument, lo, hi, max(t.first+1, 1), t.Rounds())
	}
	out := make([]float64, hi-lo)
	for i := range out {
		j := lo - t.first + i
		out[i] = t.values[j] - t.values[j-1]
	}
	return out, nil
}
