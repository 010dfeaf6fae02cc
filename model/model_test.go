package model

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/dicegame/pricing"
)

func TestModelsAtFirstRound(t *testing.T) {
	assert.InDelta(t, 3.5*5.3/6, ValueContinuous(1), 1e-12)
	assert.InDelta(t, 2.5*5.3/36, PriceContinuous(1), 1e-12)
	assert.InDelta(t, 3.5, PriceDiscrete(1), 1e-12)
	assert.InDelta(t, 3.5*5/6, PriceDiscrete(2), 1e-12)
}

func TestValueContinuousApproachesAsymptote(t *testing.T) {
	assert.InDelta(t, 5.3, ValueContinuous(1000), 1e-9)
	p := DefaultParams()
	p.Asymptote = 6
	assert.InDelta(t, 6, p.ValueContinuous(1000), 1e-9)
}

func TestPriceIsDerivativeOfValue(t *testing.T) {
	const h = 1e-5
	for _, x := range []float64{0, 1, 2.5, 10, 40} {
		numeric := (ValueContinuous(x+h) - ValueContinuous(x-h)) / (2 * h)
		assert.InDelta(t, numeric, PriceContinuous(x), 1e-8)
	}
}

func TestDiscreteRatioMatchesSubgame(t *testing.T) {
	// In the roll-until-six game each extra roll is worth 5/6 of the one
	// before; the discrete price model decays at the same rate.
	for m := 0; m < 40; m++ {
		sub := (pricing.MthToss(m+2) - pricing.MthToss(m+1)) / (pricing.MthToss(m+1) - pricing.MthToss(m))
		n := float64(m + 1)
		model := PriceDiscrete(n+1) / PriceDiscrete(n)
		assert.InDelta(t, sub, model, 1e-6)
		assert.InDelta(t, 5.0/6, model, 1e-12)
	}
}

func TestModelsAreTotal(t *testing.T) {
	is := is.New(t)
	for _, x := range []float64{-10, -0.5, 0, 0.5, 1e6} {
		for _, k := range Kinds() {
			v := DefaultParams().Func(k)(x)
			is.True(!math.IsNaN(v))
		}
	}
}

func TestParseKind(t *testing.T) {
	is := is.New(t)
	for s, want := range map[string]Kind{
		"value-continuous": KindValueContinuous,
		"value":            KindValueContinuous,
		" PRICE ":          KindPriceContinuous,
		"pd":               KindPriceDiscrete,
		"discrete":         KindPriceDiscrete,
	} {
		k, err := ParseKind(s)
		is.NoErr(err)
		is.Equal(k, want)
	}
	_, err := ParseKind("quadratic")
	is.True(err != nil)
	is.Equal(KindPriceDiscrete.String(), "price-discrete")
	is.True(KindPriceDiscrete.IsPrice())
	is.True(!KindValueContinuous.IsPrice())
}

func TestEvaluate(t *testing.T) {
	is := is.New(t)
	out := DefaultParams().Evaluate(KindPriceDiscrete, []float64{1, 2, 3})
	is.Equal(len(out), 3)
	is.Equal(out[0], 3.5)
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	is.NoErr(DefaultParams().Validate())
	p := DefaultParams()
	p.Decay = 0
	is.True(p.Validate() != nil)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		p = DefaultParams()
		p.Asymptote = bad
		is.True(p.Validate() != nil)
		p = DefaultParams()
		p.FirstPrice = bad
		is.True(p.Validate() != nil)
	}
}

func TestCompare(t *testing.T) {
	is := is.New(t)
	summary, err := Compare([]float64{1, 2, 3, 4}, []float64{1, 2.5, 3, 3})
	is.NoErr(err)
	is.Equal(summary.Points, 4)
	is.Equal(summary.MaxAbs, 1.0)
	is.Equal(summary.ArgMax, 3)
	assert.InDelta(t, math.Sqrt(1.25/4), summary.RMSE, 1e-12)
	assert.InDelta(t, -0.125, summary.Bias, 1e-12)

	_, err = Compare([]float64{1}, []float64{1, 2})
	is.True(err != nil)
	_, err = Compare(nil, nil)
	is.True(err != nil)
}

func TestContinuousBeatsDiscreteOnPrices(t *testing.T) {
	is := is.New(t)
	tbl, err := pricing.NewTable(100)
	is.NoErr(err)
	exact, err := tbl.Prices(1, 100)
	is.NoErr(err)
	xs := make([]float64, len(exact))
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	p := DefaultParams()
	cont, err := Compare(exact, p.Evaluate(KindPriceContinuous, xs))
	is.NoErr(err)
	disc, err := Compare(exact, p.Evaluate(KindPriceDiscrete, xs))
	is.NoErr(err)
	is.True(cont.RMSE < disc.RMSE)
}

func TestFit(t *testing.T) {
	is := is.New(t)
	res, err := Fit(1, 100, DefaultParams())
	is.NoErr(err)
	is.True(res.After <= res.Before)
	is.True(res.Evaluations > 0)
	assert.InDelta(t, 5.3, res.Params.Asymptote, 0.1)
	is.Equal(res.Params.Ratio, 5.0/6)

	_, err = Fit(5, 6, DefaultParams())
	is.True(errors.Is(err, pricing.ErrInvalidArgument))
}
