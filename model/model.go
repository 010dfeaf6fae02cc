// Package model holds the closed-form approximations to the exact value and
// fair price curves of the die game.
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

const ceiling = 6.0

// Params are the tunable constants of the approximations. The continuous
// models are
//
//	value(x) = (6 - Amplitude*e^((1-x)/Decay)) * Asymptote/6
//	price(x) = Amplitude*e^((1-x)/Decay) * Asymptote/(6*Decay)
//
// so price is the derivative of value. The discrete model is
// price(n) = FirstPrice * Ratio^(n-1).
type Params struct {
	Asymptote  float64 `yaml:"asymptote"`
	Amplitude  float64 `yaml:"amplitude"`
	Decay      float64 `yaml:"decay"`
	FirstPrice float64 `yaml:"first_price"`
	Ratio      float64 `yaml:"ratio"`
}

// DefaultParams returns the hand-tuned constants. The asymptote 5.3 is an
// empirical fit; the exact limit of E(n) is 1717/324.
func DefaultParams() Params {
	return Params{
		Asymptote:  5.3,
		Amplitude:  2.5,
		Decay:      6,
		FirstPrice: 3.5,
		Ratio:      5.0 / 6,
	}
}

func (p Params) Validate() error {
	fields := map[string]float64{
		"asymptote":   p.Asymptote,
		"amplitude":   p.Amplitude,
		"decay":       p.Decay,
		"first price": p.FirstPrice,
		"ratio":       p.Ratio,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("model %s must be finite, got %v", name, v)
		}
	}
	if p.Decay == 0 {
		return fmt.Errorf("model decay must be non-zero")
	}
	if p.Ratio < 0 {
		return fmt.Errorf("model ratio must be non-negative, got %v", p.Ratio)
	}
	return nil
}

func (p Params) ValueContinuous(x float64) float64 {
	return (ceiling - p.Amplitude*math.Exp((1-x)/p.Decay)) * p.Asymptote / ceiling
}

func (p Params) PriceContinuous(x float64) float64 {
	return p.Amplitude * math.Exp((1-x)/p.Decay) * p.Asymptote / (ceiling * p.Decay)
}

func (p Params) PriceDiscrete(n float64) float64 {
	return p.FirstPrice * math.Pow(p.Ratio, n-1)
}

func ValueContinuous(x float64) float64 {
	return DefaultParams().ValueContinuous(x)
}

func PriceContinuous(x float64) float64 {
	return DefaultParams().PriceContinuous(x)
}

func PriceDiscrete(n float64) float64 {
	return DefaultParams().PriceDiscrete(n)
}

type Kind int

const (
	KindValueContinuous Kind = iota
	KindPriceContinuous
	KindPriceDiscrete
)

var kindNames = map[Kind]string{
	KindValueContinuous: "value-continuous",
	KindPriceContinuous: "price-continuous",
	KindPriceDiscrete:   "price-discrete",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsPrice reports whether the model approximates fair prices rather than
// expected values.
func (k Kind) IsPrice() bool {
	return k == KindPriceContinuous || k == KindPriceDiscrete
}

// Kinds lists every model, in display order.
func Kinds() []Kind {
	return []Kind{KindValueContinuous, KindPriceContinuous, KindPriceDiscrete}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "value-continuous", "value", "vc":
		return KindValueContinuous, nil
	case "price-continuous", "price", "pc":
		return KindPriceContinuous, nil
	case "price-discrete", "discrete", "pd":
		return KindPriceDiscrete, nil
	}
	return 0, fmt.Errorf("unknown model %q; options are %s", s,
		strings.Join(lo.Map(Kinds(), func(k Kind, _ int) string { return k.String() }), ", "))
}

// Func returns the model function of the given kind bound to p.
func (p Params) Func(k Kind) func(float64) float64 {
	switch k {
	case KindPriceContinuous:
		return p.PriceContinuous
	case KindPriceDiscrete:
		return p.PriceDiscrete
	default:
		return p.ValueContinuous
	}
}

// Evaluate maps the model of kind k over xs.
func (p Params) Evaluate(k Kind, xs []float64) []float64 {
	f := p.Func(k)
	return lo.Map(xs, func(x float64, _ int) float64 {
		return f(x)
	})
}
