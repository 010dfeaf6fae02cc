package series

import (
	"bytes"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/domino14/dicegame/model"
	"github.com/domino14/dicegame/pricing"
)

func TestBuildValueSeries(t *testing.T) {
	is := is.New(t)
	s, err := Build(1, 100, model.KindValueContinuous, model.DefaultParams())
	is.NoErr(err)
	is.Equal(s.Len(), 99)
	is.Equal(s.Xs[0], 1.0)
	is.Equal(s.Xs[98], 99.0)
	is.Equal(s.Exact[0], 3.5)
	e50, _ := pricing.ExactValue(50)
	is.Equal(s.Exact[49], e50)
	is.Equal(s.Model[0], model.ValueContinuous(1))
	is.Equal(len(s.HLines), 2)
	is.Equal(s.HLines[1], HLine{Label: "y = 5.3", Y: 5.3})
	is.Equal(s.Title, "Expected value of n rolls vs continuous model")
}

func TestBuildPriceSeries(t *testing.T) {
	is := is.New(t)
	s, err := Build(30, 60, model.KindPriceDiscrete, model.DefaultParams())
	is.NoErr(err)
	is.Equal(s.Len(), 30)
	is.Equal(len(s.HLines), 0)
	is.Equal(s.ModelLabel, "Discrete model")
	for i, p := range s.Exact {
		fp, _ := pricing.FairPrice(30 + i)
		assert.InDelta(t, fp, p, 1e-15)
		is.True(p < 0.001)
	}
}

func TestBuildRejectsBadRanges(t *testing.T) {
	is := is.New(t)
	_, err := Build(5, 5, model.KindValueContinuous, model.DefaultParams())
	is.True(errors.Is(err, pricing.ErrInvalidArgument))
	_, err = Build(-1, 5, model.KindValueContinuous, model.DefaultParams())
	is.True(errors.Is(err, pricing.ErrInvalidArgument))
	_, err = Build(0, 5, model.KindPriceContinuous, model.DefaultParams())
	is.True(errors.Is(err, pricing.ErrInvalidArgument))
	_, err = Build(0, MaxPoints()+1, model.KindValueContinuous, model.DefaultParams())
	is.True(errors.Is(err, pricing.ErrInvalidArgument))

	p := model.DefaultParams()
	p.Decay = 0
	_, err = Build(0, 5, model.KindValueContinuous, p)
	is.True(err != nil)
}

func TestBuildFarOutRange(t *testing.T) {
	is := is.New(t)
	first := 1 << 50
	s, err := Build(first, first+5, model.KindPriceDiscrete, model.DefaultParams())
	is.NoErr(err)
	is.Equal(s.Len(), 5)
	is.Equal(s.Xs[0], float64(first))
	for i, p := range s.Exact {
		fp, err := pricing.FairPrice(first + i)
		is.NoErr(err)
		is.Equal(p, fp)
	}

	v, err := Build(first, first+5, model.KindValueContinuous, model.DefaultParams())
	is.NoErr(err)
	e, _ := pricing.ExactValue(first)
	is.Equal(v.Exact[0], e)
}

func TestValueFromRoundZero(t *testing.T) {
	is := is.New(t)
	s, err := Build(0, 3, model.KindValueContinuous, model.DefaultParams())
	is.NoErr(err)
	is.Equal(s.Exact, []float64{0, 3.5, 4.25})
}

func TestDigest(t *testing.T) {
	is := is.New(t)
	a, err := Build(1, 50, model.KindPriceContinuous, model.DefaultParams())
	is.NoErr(err)
	b, err := Build(1, 50, model.KindPriceContinuous, model.DefaultParams())
	is.NoErr(err)
	is.Equal(a.Digest(), b.Digest())

	p := model.DefaultParams()
	p.Asymptote = 6
	c, err := Build(1, 50, model.KindPriceContinuous, p)
	is.NoErr(err)
	is.True(a.Digest() != c.Digest())
}

func TestExport(t *testing.T) {
	is := is.New(t)
	s, err := Build(1, 4, model.KindPriceDiscrete, model.DefaultParams())
	is.NoErr(err)
	var buf bytes.Buffer
	is.NoErr(s.Export(&buf, 4))

	var rep Report
	is.NoErr(yaml.Unmarshal(buf.Bytes(), &rep))
	is.Equal(rep.Kind, "price-discrete")
	is.Equal(len(rep.Points), 3)
	is.Equal(rep.Points[0], Point{N: 1, Exact: "3.5000", Model: "3.5000", Error: "0.0000"})
	is.Equal(rep.Points[1].Exact, "0.7500")
	is.Equal(rep.Points[2].Exact, "0.3333")
	is.Equal(rep.Params, model.DefaultParams())
	is.Equal(len(rep.Digest), 16)

	_, err = s.Report(-1)
	is.True(err != nil)
}
