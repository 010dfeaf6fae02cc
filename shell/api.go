package shell

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gonum.org/v1/plot/vg"

	"github.com/domino14/dicegame/config"
	"github.com/domino14/dicegame/model"
	"github.com/domino14/dicegame/plot"
	"github.com/domino14/dicegame/pricing"
	"github.com/domino14/dicegame/series"
)

// Exact fractions get unwieldy past this many rounds.
const maxFractionRounds = 20

// tableRowLimit keeps the table command from flooding the terminal.
const tableRowLimit = 1000

// maxVerifyRounds bounds verify, whose exact rationals cost O(n^2).
const maxVerifyRounds = 300

func intArgs(cmd *shellcmd, names ...string) ([]int, error) {
	if len(cmd.args) < len(names) {
		return nil, fmt.Errorf("%s needs arguments: %s", cmd.cmd, strings.Join(names, " "))
	}
	vals := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(cmd.args[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %s must be an integer, got %q", cmd.cmd, name, cmd.args[i])
		}
		vals[i] = v
	}
	return vals, nil
}

func floatArg(cmd *shellcmd, idx int, name string) (float64, error) {
	if len(cmd.args) <= idx {
		return 0, fmt.Errorf("%s needs the argument %s", cmd.cmd, name)
	}
	v, err := strconv.ParseFloat(cmd.args[idx], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %s must be a number, got %q", cmd.cmd, name, cmd.args[idx])
	}
	return v, nil
}

func (sc *ShellController) value(cmd *shellcmd) (*Response, error) {
	a, err := intArgs(cmd, "n")
	if err != nil {
		return nil, err
	}
	n := a[0]
	v, err := pricing.ExactValue(n)
	if err != nil {
		return nil, err
	}
	out := fmt.Sprintf("E(%d) = %.12f", n, v)
	if n <= maxFractionRounds {
		r, err := pricing.ExactValueRat(n)
		if err != nil {
			return nil, err
		}
		out += " (" + r.RatString() + ")"
	}
	return msg(out), nil
}

func (sc *ShellController) price(cmd *shellcmd) (*Response, error) {
	a, err := intArgs(cmd, "n")
	if err != nil {
		return nil, err
	}
	p, err := pricing.FairPrice(a[0])
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("price(%d) = %.12g", a[0], p)), nil
}

func (sc *ShellController) toss(cmd *shellcmd) (*Response, error) {
	a, err := intArgs(cmd, "m")
	if err != nil {
		return nil, err
	}
	m := a[0]
	return msg(fmt.Sprintf("MthToss(%d) = %.12f (closed form %.12f)",
		m, pricing.MthToss(m), pricing.MthTossClosed(m))), nil
}

func (sc *ShellController) model(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("model needs arguments: kind x")
	}
	kind, err := model.ParseKind(cmd.args[0])
	if err != nil {
		return nil, err
	}
	x, err := floatArg(cmd, 1, "x")
	if err != nil {
		return nil, err
	}
	p := sc.config.ModelParams()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s(%g) = %.12g", kind, x, p.Func(kind)(x))), nil
}

func (sc *ShellController) table(cmd *shellcmd) (*Response, error) {
	a, err := intArgs(cmd, "lo", "hi")
	if err != nil {
		return nil, err
	}
	lo, hi := a[0], a[1]
	if lo < 1 || hi <= lo {
		return nil, fmt.Errorf("%w: table range [%d, %d) must be non-empty and start at 1 or later",
			pricing.ErrInvalidArgument, lo, hi)
	}
	if hi-lo > tableRowLimit {
		return nil, fmt.Errorf("table shows at most %d rows; use export for more", tableRowLimit)
	}
	tbl, err := pricing.NewTableRange(lo, hi)
	if err != nil {
		return nil, err
	}
	p := sc.config.ModelParams()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%6s  %-16s %-16s %-16s %-16s\n",
		"n", "E(n)", "price", "continuous", "discrete"))
	for n := lo; n < hi; n++ {
		v, _ := tbl.Value(n)
		pr, _ := tbl.Price(n)
		x := float64(n)
		sb.WriteString(fmt.Sprintf("%6d  %-16.12f %-16.10g %-16.10g %-16.10g\n",
			n, v, pr, p.PriceContinuous(x), p.PriceDiscrete(x)))
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) compare(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 3 {
		return nil, errors.New("compare needs arguments: kind lo hi")
	}
	kind, err := model.ParseKind(cmd.args[0])
	if err != nil {
		return nil, err
	}
	a, err := intArgs(&shellcmd{cmd: cmd.cmd, args: cmd.args[1:]}, "lo", "hi")
	if err != nil {
		return nil, err
	}
	s, err := series.Build(a[0], a[1], kind, sc.config.ModelParams())
	if err != nil {
		return nil, err
	}
	summary, err := s.Errors()
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s, n in [%d, %d)\n%s", s.Title, a[0], a[1], summary)), nil
}

func (sc *ShellController) fit(cmd *shellcmd) (*Response, error) {
	a, err := intArgs(cmd, "lo", "hi")
	if err != nil {
		return nil, err
	}
	res, err := model.Fit(a[0], a[1], sc.config.ModelParams())
	if err != nil {
		return nil, err
	}
	out := fmt.Sprintf(
		"asymptote %.6f, amplitude %.6f, decay %.6f\nRMSE %.3e -> %.3e after %d evaluations",
		res.Params.Asymptote, res.Params.Amplitude, res.Params.Decay,
		res.Before, res.After, res.Evaluations)
	if cmd.options.Bool("apply") {
		sc.config.SetValue(config.ConfigModelAsymptote, res.Params.Asymptote)
		sc.config.SetValue(config.ConfigModelAmplitude, res.Params.Amplitude)
		sc.config.SetValue(config.ConfigModelDecay, res.Params.Decay)
		out += "\napplied to the model settings"
	}
	return msg(out), nil
}

func (sc *ShellController) verify(cmd *shellcmd) (*Response, error) {
	a, err := intArgs(cmd, "n")
	if err != nil {
		return nil, err
	}
	n := a[0]
	if n > maxVerifyRounds {
		return nil, fmt.Errorf("%w: verify checks at most %d rounds, got %d",
			pricing.ErrInvalidArgument, maxVerifyRounds, n)
	}
	derived, err := pricing.DeriveValuesRat(n)
	if err != nil {
		return nil, err
	}
	var mismatches []int
	for k, d := range derived {
		closed, err := pricing.ExactValueRat(k)
		if err != nil {
			return nil, err
		}
		if closed.Cmp(d) != 0 {
			mismatches = append(mismatches, k)
		}
	}
	if len(mismatches) > 0 {
		return nil, fmt.Errorf("closed form disagrees with backward induction at rounds %v", mismatches)
	}
	return msg(fmt.Sprintf("E(0..%d) match backward induction exactly", n)), nil
}

func (sc *ShellController) plotPath(name string) string {
	return filepath.Join(sc.config.GetString(config.ConfigPlotDir), name)
}

func (sc *ShellController) plot(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 5 {
		return nil, errors.New("plot needs arguments: kind lo hi ymin ymax")
	}
	kind, err := model.ParseKind(cmd.args[0])
	if err != nil {
		return nil, err
	}
	a, err := intArgs(&shellcmd{cmd: cmd.cmd, args: cmd.args[1:]}, "lo", "hi")
	if err != nil {
		return nil, err
	}
	ymin, err := floatArg(cmd, 3, "ymin")
	if err != nil {
		return nil, err
	}
	ymax, err := floatArg(cmd, 4, "ymax")
	if err != nil {
		return nil, err
	}
	c, err := plot.Compare(kind, a[0], a[1], ymin, ymax, sc.config.ModelParams())
	if err != nil {
		return nil, err
	}
	c.Width = sc.plotSize(config.ConfigPlotWidth)
	c.Height = sc.plotSize(config.ConfigPlotHeight)

	out := cmd.options.String("out")
	if out == "" {
		out = sc.plotPath(fmt.Sprintf("%s-%d-%d.png", kind, a[0], a[1]))
	}
	if err := plot.Render(out, c); err != nil {
		return nil, err
	}
	return msg("wrote " + out), nil
}

// plotSize reads a chart dimension in inches. Zero leaves the renderer's
// default.
func (sc *ShellController) plotSize(key string) vg.Length {
	v := sc.config.GetFloat64(key)
	if v <= 0 {
		return 0
	}
	return vg.Length(v) * vg.Inch
}

func (sc *ShellController) notebook(cmd *shellcmd) (*Response, error) {
	dir := sc.config.GetString(config.ConfigPlotDir)
	if len(cmd.args) > 0 {
		dir = cmd.args[0]
	}
	paths, err := plot.Notebook(dir, sc.config.ModelParams())
	if err != nil {
		return nil, err
	}
	return msg("wrote\n  " + strings.Join(paths, "\n  ")), nil
}

func (sc *ShellController) export(cmd *shellcmd) (*Response, error) {
	a, err := intArgs(cmd, "lo", "hi")
	if err != nil {
		return nil, err
	}
	kind, err := model.ParseKind(cmd.options.StringDefault("kind", model.KindValueContinuous.String()))
	if err != nil {
		return nil, err
	}
	places, err := cmd.options.IntDefault("places", sc.config.GetInt(config.ConfigExportPlaces))
	if err != nil {
		return nil, err
	}
	s, err := series.Build(a[0], a[1], kind, sc.config.ModelParams())
	if err != nil {
		return nil, err
	}
	file := cmd.options.String("file")
	if file == "" {
		var buf bytes.Buffer
		if err := s.Export(&buf, places); err != nil {
			return nil, err
		}
		return msg(buf.String()), nil
	}
	f, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	if err := s.Export(f, places); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("exported %d points to %s", s.Len(), file)), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		settings := sc.config.SanitizedSettings()
		keys := lo.Keys(settings)
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("Settings:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, settings[k]))
		}
		return msg(sb.String()), nil
	}
	key := cmd.args[0]
	if !lo.Contains(sc.config.AllKeys(), key) {
		return nil, fmt.Errorf("no such setting: %s", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	prev := sc.config.Get(key)
	if err := sc.config.SetString(key, cmd.args[1]); err != nil {
		return nil, err
	}
	if strings.HasPrefix(key, "model-") {
		if err := sc.config.ModelParams().Validate(); err != nil {
			sc.config.SetValue(key, prev)
			return nil, err
		}
	}
	return msg(fmt.Sprintf("set %s to %v", key, sc.config.Get(key))), nil
}
