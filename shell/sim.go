package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/dicegame/config"
	"github.com/domino14/dicegame/montecarlo"
)

const simTickerInterval = 10 * time.Second

// histogramWidth is the width of the bars in the sim histograms.
const histogramWidth = 50

func (sc *ShellController) sim(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 {
		switch cmd.args[0] {
		case "stop", "show", "log", "hist":
			return sc.simControlArguments(cmd.args)
		}
	}
	if sc.simRunning() {
		return nil, errSimming
	}
	a, err := intArgs(cmd, "n")
	if err != nil {
		return nil, err
	}

	iters, err := cmd.options.IntDefault("iters", sc.config.GetInt(config.ConfigSimIterations))
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigSimThreads))
	if err != nil {
		return nil, err
	}
	stop, err := montecarlo.ParseStoppingCondition(
		cmd.options.StringDefault("confidence", sc.config.GetString(config.ConfigSimStop)))
	if err != nil {
		return nil, err
	}
	tolerance, err := cmd.options.FloatDefault("tolerance", sc.config.GetFloat64(config.ConfigSimTolerance))
	if err != nil {
		return nil, err
	}
	seed := sc.config.GetUint64(config.ConfigSimSeed)
	req := montecarlo.Request{
		Rounds:            a[0],
		Iterations:        iters,
		StoppingCondition: stop,
		Tolerance:         tolerance,
		CheckInterval:     montecarlo.DefaultCheckInterval,
	}

	log.Debug().Int("rounds", req.Rounds).Int("iters", iters).Int("threads", threads).
		Str("stop", stop.String()).Float64("tolerance", tolerance).Msg("will start sim")

	simmer := montecarlo.NewSimulator(threads, seed)
	if sc.simLogFile != nil {
		simmer.SetLogStream(sc.simLogFile)
	}
	// The slot is claimed under the lock, so two starts can't both pass.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sc.simMu.Lock()
	if sc.simCancel != nil {
		sc.simMu.Unlock()
		cancel()
		return nil, errSimming
	}
	sc.simmer = simmer
	sc.simResult, sc.simErr = nil, nil
	sc.simCancel, sc.simDone = cancel, done
	sc.simMu.Unlock()

	if !sc.interactive {
		res, err := simmer.Simulate(ctx, req)
		sc.finishSim(res, err)
		close(done)
		cancel()
		if err != nil {
			return nil, err
		}
		return msg(res.String()), nil
	}
	sc.startSim(ctx, cancel, done, simmer, req)
	return msg("Simulation started. Please do `sim show` to see more info, `sim stop` to stop it"), nil
}

func (sc *ShellController) finishSim(res *montecarlo.Result, err error) {
	sc.simMu.Lock()
	defer sc.simMu.Unlock()
	sc.simResult, sc.simErr = res, err
	sc.simCancel = nil
}

// simRunning reports whether a simulation holds the slot.
func (sc *ShellController) simRunning() bool {
	sc.simMu.Lock()
	defer sc.simMu.Unlock()
	return sc.simCancel != nil
}

func (sc *ShellController) startSim(ctx context.Context, cancel context.CancelFunc, done chan struct{},
	simmer *montecarlo.Simulator, req montecarlo.Request) {
	ticker := time.NewTicker(simTickerInterval)
	go func() {
		defer close(done)
		defer cancel()
		defer ticker.Stop()
		res, err := simmer.Simulate(ctx, req)
		sc.finishSim(res, err)
		if err != nil {
			sc.showError(err)
		}
		log.Debug().Msg("simulation thread exiting...")
	}()

	go func() {
		for {
			select {
			case <-done:
				log.Debug().Msg("ticker thread exiting...")
				return
			case <-ticker.C:
				log.Info().Msg(sc.printer.Sprintf("Simulator is at %d iterations...",
					simmer.IterationCount()))
			}
		}
	}()
}

func (sc *ShellController) lastResult() (*montecarlo.Result, error) {
	sc.simMu.Lock()
	defer sc.simMu.Unlock()
	if sc.simErr != nil {
		return nil, sc.simErr
	}
	if sc.simResult == nil {
		return nil, errors.New("no finished simulation")
	}
	return sc.simResult, nil
}

func (sc *ShellController) simControlArguments(args []string) (*Response, error) {
	var err error
	switch args[0] {
	case "log":
		if sc.simRunning() {
			return nil, errors.New("please stop sim before making any log changes")
		}
		if len(args) < 2 {
			return nil, errors.New("sim log needs a file name")
		}
		if sc.simLogFile != nil {
			sc.simLogFile.Close()
		}
		sc.simLogFile, err = os.Create(args[1])
		if err != nil {
			return nil, err
		}
		return msg("sim will log to " + args[1]), nil
	case "stop":
		sc.simMu.Lock()
		cancel, done := sc.simCancel, sc.simDone
		sc.simMu.Unlock()
		if cancel == nil {
			return nil, errors.New("no running sim to stop")
		}
		cancel()
		<-done
		res, err := sc.lastResult()
		if err != nil {
			return nil, err
		}
		return msg(res.String()), nil
	case "show":
		sc.simMu.Lock()
		simmer, running := sc.simmer, sc.simCancel != nil
		sc.simMu.Unlock()
		if running {
			return msg(sc.printer.Sprintf("simulating, %d iterations so far", simmer.IterationCount())), nil
		}
		res, err := sc.lastResult()
		if err != nil {
			return nil, err
		}
		return msg(res.String()), nil
	case "hist":
		res, err := sc.lastResult()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := res.WriteHistograms(&buf, histogramWidth); err != nil {
			return nil, err
		}
		return msg(buf.String()), nil
	}
	return nil, fmt.Errorf("do not understand sim argument %v", args[0])
}
