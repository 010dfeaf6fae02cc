package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/dicegame/model"
)

const (
	ConfigDebug           = "debug"
	ConfigCPUProfile      = "cpu-profile"
	ConfigMemProfile      = "mem-profile"
	ConfigFile            = "config"
	ConfigModelAsymptote  = "model-asymptote"
	ConfigModelAmplitude  = "model-amplitude"
	ConfigModelDecay      = "model-decay"
	ConfigModelFirstPrice = "model-first-price"
	ConfigModelRatio      = "model-ratio"
	ConfigSimThreads      = "sim-threads"
	ConfigSimIterations   = "sim-iterations"
	ConfigSimSeed         = "sim-seed"
	ConfigSimStop         = "sim-stop"
	ConfigSimTolerance    = "sim-tolerance"
	ConfigPlotDir         = "plot-dir"
	ConfigPlotWidth       = "plot-width"
	ConfigPlotHeight      = "plot-height"
	ConfigExportPlaces    = "export-places"
)

// Config wraps a viper instance. Settings come, in increasing priority,
// from defaults, an optional config file, DICEGAME_* environment variables
// and command-line flags.
type Config struct {
	sync.Mutex
	*viper.Viper

	// args holds the positional arguments left after flag parsing.
	args []string
}

func defaults() map[string]any {
	p := model.DefaultParams()
	return map[string]any{
		ConfigDebug:           false,
		ConfigCPUProfile:      "",
		ConfigMemProfile:      "",
		ConfigModelAsymptote:  p.Asymptote,
		ConfigModelAmplitude:  p.Amplitude,
		ConfigModelDecay:      p.Decay,
		ConfigModelFirstPrice: p.FirstPrice,
		ConfigModelRatio:      p.Ratio,
		ConfigSimThreads:      0,
		ConfigSimIterations:   100000,
		ConfigSimSeed:         uint64(0),
		ConfigSimStop:         "none",
		ConfigSimTolerance:    0.005,
		ConfigPlotDir:         "./plots",
		ConfigPlotWidth:       20.0,
		ConfigPlotHeight:      10.0,
		ConfigExportPlaces:    12,
	}
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("dicegame")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns a config holding only defaults and environment
// overrides.
func DefaultConfig() *Config {
	return &Config{Viper: newViper()}
}

func (c *Config) Load(args []string) error {
	c.Viper = newViper()

	fs := pflag.NewFlagSet("dicegame", pflag.ContinueOnError)
	// Everything from the first positional argument on is a shell command,
	// with its own -option syntax.
	fs.SetInterspersed(false)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigCPUProfile, "", "file to write a CPU profile to")
	fs.String(ConfigMemProfile, "", "file to write a memory profile to on exit")
	fs.String(ConfigFile, "", "optional config file (yaml, json or toml)")
	fs.Float64(ConfigModelAsymptote, 0, "asymptote of the continuous models")
	fs.Float64(ConfigModelAmplitude, 0, "amplitude of the continuous models")
	fs.Float64(ConfigModelDecay, 0, "decay length of the continuous models")
	fs.Float64(ConfigModelFirstPrice, 0, "first price of the discrete model")
	fs.Float64(ConfigModelRatio, 0, "ratio of the discrete model")
	fs.Int(ConfigSimThreads, 0, "simulation threads; 0 uses all CPUs")
	fs.Int(ConfigSimIterations, 0, "default number of simulated games")
	fs.Uint64(ConfigSimSeed, 0, "simulation seed; 0 seeds from the OS")
	fs.String(ConfigSimStop, "", "simulation stopping condition: none, 95, 98, 99")
	fs.Float64(ConfigSimTolerance, 0, "target confidence half width for the stopping condition")
	fs.String(ConfigPlotDir, "", "directory for rendered charts")
	fs.Float64(ConfigPlotWidth, 0, "chart width in inches")
	fs.Float64(ConfigPlotHeight, 0, "chart height in inches")
	fs.Int(ConfigExportPlaces, 0, "decimal places in exported reports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// Only flags given explicitly override the lower layers.
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if err := c.BindPFlag(f.Name, f); err != nil {
			bindErr = errors.Join(bindErr, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}
	c.args = fs.Args()

	if file := c.GetString(ConfigFile); file != "" {
		c.SetConfigFile(file)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

// Args are the positional arguments of the command line.
func (c *Config) Args() []string {
	return c.args
}

// ModelParams assembles the approximation constants.
func (c *Config) ModelParams() model.Params {
	c.Lock()
	defer c.Unlock()
	return model.Params{
		Asymptote:  c.GetFloat64(ConfigModelAsymptote),
		Amplitude:  c.GetFloat64(ConfigModelAmplitude),
		Decay:      c.GetFloat64(ConfigModelDecay),
		FirstPrice: c.GetFloat64(ConfigModelFirstPrice),
		Ratio:      c.GetFloat64(ConfigModelRatio),
	}
}

// SetValue sets a key at runtime, from the shell for example.
func (c *Config) SetValue(key string, value any) {
	c.Lock()
	defer c.Unlock()
	c.Set(key, value)
}

// SetString parses value as the type of the key's default and sets it.
// Unknown keys and values that don't parse are rejected.
func (c *Config) SetString(key, value string) error {
	def, ok := defaults()[key]
	if !ok {
		return fmt.Errorf("no such setting: %s", key)
	}
	var (
		parsed any
		err    error
	)
	switch def.(type) {
	case bool:
		parsed, err = cast.ToBoolE(value)
	case int:
		parsed, err = cast.ToIntE(value)
	case uint64:
		parsed, err = cast.ToUint64E(value)
	case float64:
		var f float64
		f, err = cast.ToFloat64E(value)
		if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
			err = fmt.Errorf("%v is not finite", f)
		}
		parsed = f
	default:
		parsed = value
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	c.SetValue(key, parsed)
	return nil
}

// SanitizedSettings returns all settings for display.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
