package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/dicegame/config"
	"github.com/domino14/dicegame/shell"
)

var (
	GitVersion string
)

func main() {
	// A missing .env is fine; the environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "could not load .env:", err)
	}

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	var logger zerolog.Logger
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
	if GitVersion != "" {
		log.Info().Str("version", GitVersion).Msg("dicegame")
	}
	log.Debug().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Debug().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	sc := shell.NewShellController(cfg)
	if args := cfg.Args(); len(args) == 0 {
		go sc.Loop(sig)
	} else {
		sc.Execute(sig, shellquote.Join(args...))
		sig <- syscall.SIGINT
	}

	<-idleConnsClosed

	if cfg.GetString(config.ConfigMemProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigMemProfile))
		if err != nil {
			panic("could not create memory profile: " + err.Error())
		}
		defer f.Close()
		memstats := &runtime.MemStats{}
		runtime.ReadMemStats(memstats)
		log.Info().Interface("memstats", memstats).Msg("memory-stats")

		if err := pprof.WriteHeapProfile(f); err != nil {
			panic("could not write memory profile: " + err.Error())
		}
		log.Info().Msg("wrote memory profile")
	}

	sc.Cleanup()
	log.Debug().Msg("shutting down")
}
