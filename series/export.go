package series

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/domino14/dicegame/model"
)

// Point is one row of an exported report. Values are rounded decimal
// strings so reports diff cleanly.
type Point struct {
	N     int    `yaml:"n"`
	Exact string `yaml:"exact"`
	Model string `yaml:"model"`
	Error string `yaml:"error"`
}

type Report struct {
	Title  string             `yaml:"title"`
	Kind   string             `yaml:"kind"`
	Params model.Params       `yaml:"params"`
	Digest string             `yaml:"digest"`
	Error  model.ErrorSummary `yaml:"error"`
	HLines []HLine            `yaml:"hlines,omitempty"`
	Points []Point            `yaml:"points"`
}

// Report assembles the exportable form of the series, rounding every value
// to the given number of decimal places.
func (s *Series) Report(places int) (*Report, error) {
	if places < 0 {
		return nil, fmt.Errorf("decimal places must be non-negative, got %d", places)
	}
	errs, err := s.Errors()
	if err != nil {
		return nil, err
	}
	round := func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(int32(places))
	}
	points := make([]Point, s.Len())
	for i := range points {
		points[i] = Point{
			N:     s.First + i,
			Exact: round(s.Exact[i]),
			Model: round(s.Model[i]),
			Error: round(s.Model[i] - s.Exact[i]),
		}
	}
	return &Report{
		Title:  s.Title,
		Kind:   s.Kind.String(),
		Params: s.Params,
		Digest: fmt.Sprintf("%016x", s.Digest()),
		Error:  errs,
		HLines: s.HLines,
		Points: points,
	}, nil
}

// Export writes the series report as YAML.
func (s *Series) Export(w io.Writer, places int) error {
	rep, err := s.Report(places)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}
