package pricing

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/matryer/is"
)

func TestDerivedValuesMatchHardcoded(t *testing.T) {
	is := is.New(t)
	derived, err := DeriveValuesRat(40)
	is.NoErr(err)
	for n := 0; n <= 40; n++ {
		exact, err := ExactValueRat(n)
		is.NoErr(err)
		if derived[n].Cmp(exact) != 0 {
			t.Fatalf("round %d: derived %v, hardcoded formula %v", n, derived[n], exact)
		}
	}
}

func TestDeriveValueRat(t *testing.T) {
	is := is.New(t)
	v, err := DeriveValueRat(3)
	is.NoErr(err)
	is.Equal(v.Cmp(big.NewRat(55, 12)), 0)

	v, err = DeriveValueRat(7)
	is.NoErr(err)
	is.Equal(v.Cmp(big.NewRat(4951, 972)), 0)
}

func TestExactValueRatMatchesFloat(t *testing.T) {
	is := is.New(t)
	for n := 0; n < 60; n++ {
		r, err := ExactValueRat(n)
		is.NoErr(err)
		f, err := ExactValue(n)
		is.NoErr(err)
		rf, _ := r.Float64()
		diff := rf - f
		is.True(diff < 1e-12 && diff > -1e-12)
	}
}

func TestRatBounds(t *testing.T) {
	is := is.New(t)
	_, err := ExactValueRat(-1)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = ExactValueRat(MaxRatRounds + 1)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = DeriveValueRat(-2)
	is.True(errors.Is(err, ErrInvalidArgument))
}

func TestLimitIsNestedFixedPoint(t *testing.T) {
	is := is.New(t)
	is.Equal(nestRat(big.NewRat(6, 1)).Cmp(Limit), 0)
	is.Equal(MthTossRat(0).Cmp(big.NewRat(7, 2)), 0)
	is.Equal(MthTossRat(1).Cmp(big.NewRat(47, 12)), 0)
}

func TestTable(t *testing.T) {
	is := is.New(t)
	tbl, err := NewTable(300)
	is.NoErr(err)
	is.Equal(tbl.Rounds(), 300)
	for n := 0; n <= 300; n++ {
		v, err := tbl.Value(n)
		is.NoErr(err)
		e, _ := ExactValue(n)
		is.Equal(v, e)
	}
	p, err := tbl.Price(2)
	is.NoErr(err)
	is.Equal(p, 0.75)

	_, err = tbl.Value(301)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = tbl.Price(0)
	is.True(errors.Is(err, ErrInvalidArgument))

	vals, err := tbl.Values(1, 4)
	is.NoErr(err)
	is.Equal(vals, []float64{3.5, 4.25, 55.0 / 12})

	prices, err := tbl.Prices(1, 3)
	is.NoErr(err)
	is.Equal(prices, []float64{3.5, 0.75})

	_, err = tbl.Prices(0, 3)
	is.True(errors.Is(err, ErrInvalidArgument))

	small, err := NewTable(2)
	is.NoErr(err)
	is.Equal(small.Rounds(), 2)
	_, err = NewTable(-1)
	is.True(errors.Is(err, ErrInvalidArgument))
}

func TestTableRange(t *testing.T) {
	is := is.New(t)
	tbl, err := NewTableRange(10, 20)
	is.NoErr(err)
	is.Equal(tbl.First(), 9)
	is.Equal(tbl.Rounds(), 19)
	for n := 10; n < 20; n++ {
		v, err := tbl.Value(n)
		is.NoErr(err)
		e, _ := ExactValue(n)
		is.Equal(v, e)
		p, err := tbl.Price(n)
		is.NoErr(err)
		fp, _ := FairPrice(n)
		is.Equal(p, fp)
	}
	_, err = tbl.Value(8)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = tbl.Price(9)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = tbl.Values(5, 12)
	is.True(errors.Is(err, ErrInvalidArgument))

	_, err = NewTableRange(5, 5)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = NewTableRange(-1, 5)
	is.True(errors.Is(err, ErrInvalidArgument))
}

func TestFarOutTableRange(t *testing.T) {
	is := is.New(t)
	lo := 1 << 50
	tbl, err := NewTableRange(lo, lo+5)
	is.NoErr(err)
	is.Equal(tbl.Rounds(), lo+4)
	limit, _ := Limit.Float64()
	for n := lo; n < lo+5; n++ {
		v, err := tbl.Value(n)
		is.NoErr(err)
		e, _ := ExactValue(n)
		is.Equal(v, e)
		is.True(math.Abs(v-limit) < 1e-12)
	}
}

func TestTableSizeIsBounded(t *testing.T) {
	is := is.New(t)
	_, err := NewTable(MaxTableRounds())
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = NewTable(1 << 50)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = NewTableRange(0, 1<<50)
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = Thresholds(1 << 50)
	is.True(errors.Is(err, ErrInvalidArgument))
}
