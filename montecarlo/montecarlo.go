// Package montecarlo plays the fair-priced die game many times over to check
// the exact expected payoff empirically. In other words, "simming".
package montecarlo

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/dicegame/pricing"
	"github.com/domino14/dicegame/stats"
)

/*
	How to simulate:

	For iteration in iterations:
		for k in 1..n:
			roll the die
			if k == n or face > E(k):
				take the face as the payoff and stop

		push payoff and number of rolls into the running stats
		every so often, check whether the confidence interval around the
		mean payoff is narrow enough to stop
*/

const (
	// DefaultMaxSamples bounds the raw payoffs kept for histograms.
	DefaultMaxSamples = 50000
	// flushEvery is how many iterations a thread accumulates locally before
	// merging into the shared stats.
	flushEvery = 1024
)

var errNoBudget = errors.New("simulation needs an iteration budget or a stopping condition with a tolerance")

// LogIteration is a struct meant for serializing to a log stream, for debug
// and other purposes.
type LogIteration struct {
	Iteration uint64 `json:"iteration" yaml:"iteration"`
	Thread    int    `json:"thread" yaml:"thread"`
	Faces     []int  `json:"faces" yaml:"faces,flow"`
	Payoff    int    `json:"payoff" yaml:"payoff"`
}

type StopReason string

const (
	StoppedBudget     StopReason = "budget"
	StoppedConfidence StopReason = "confidence"
	StoppedCanceled   StopReason = "canceled"
)

// Request describes a single simulation run.
type Request struct {
	// Rounds is the maximum number of rolls in each game.
	Rounds int
	// Iterations is the number of games to play. Zero means no budget, in
	// which case a stopping condition is required.
	Iterations        int
	StoppingCondition StoppingCondition
	// Tolerance is the target half width of the confidence interval.
	Tolerance     float64
	CheckInterval int
}

type Simulator struct {
	threads    int
	seed       uint64
	maxSamples int
	logStream  io.Writer

	iterationCount atomic.Uint64
	simming        atomic.Bool

	sync.Mutex
	payoffStats   stats.Statistic
	rollStats     stats.Statistic
	payoffSamples []float64
	rollSamples   []float64
}

// NewSimulator creates a simulator with the given number of worker threads.
// threads <= 0 uses one per CPU. A non-zero seed makes every thread's die
// reproducible; with a single thread the whole run is reproducible.
func NewSimulator(threads int, seed uint64) *Simulator {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Simulator{threads: threads, seed: seed, maxSamples: DefaultMaxSamples}
}

func (s *Simulator) Threads() int {
	return s.threads
}

func (s *Simulator) SetThreads(t int) {
	if t > 0 {
		s.threads = t
	}
}

// SetLogStream makes the simulator write every game, as YAML, to w.
func (s *Simulator) SetLogStream(w io.Writer) {
	s.logStream = w
}

func (s *Simulator) SetMaxSamples(n int) {
	s.maxSamples = n
}

func (s *Simulator) IsSimming() bool {
	return s.simming.Load()
}

// IterationCount is the number of games started so far in the current or
// last run.
func (s *Simulator) IterationCount() uint64 {
	return s.iterationCount.Load()
}

func (s *Simulator) reset() {
	s.Lock()
	defer s.Unlock()
	s.iterationCount.Store(0)
	s.payoffStats = stats.Statistic{}
	s.rollStats = stats.Statistic{}
	s.payoffSamples = nil
	s.rollSamples = nil
}

func (s *Simulator) newRNG(thread int) *frand.RNG {
	if s.seed == 0 {
		return frand.New()
	}
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], s.seed)
	binary.LittleEndian.PutUint64(seed[8:16], uint64(thread))
	return frand.NewCustom(seed[:], 1024, 12)
}

// playGame plays one n-roll game where thresholds holds E(1)..E(n-1). It
// returns the payoff and the number of rolls taken. faces, when non-nil,
// receives every face rolled.
func playGame(rng *frand.RNG, thresholds []float64, faces *[]int) (int, int) {
	n := len(thresholds) + 1
	for k := 1; ; k++ {
		face := rng.Intn(6) + 1
		if faces != nil {
			*faces = append(*faces, face)
		}
		if k == n || float64(face) > thresholds[k-1] {
			return face, k
		}
	}
}

// merge folds a thread's local stats into the shared ones.
func (s *Simulator) merge(payoffs, rolls *stats.Statistic, payoffSamples, rollSamples []float64) {
	s.Lock()
	defer s.Unlock()
	s.payoffStats.Merge(payoffs)
	s.rollStats.Merge(rolls)
	if room := s.maxSamples - len(s.payoffSamples); room > 0 {
		room = min(room, len(payoffSamples))
		s.payoffSamples = append(s.payoffSamples, payoffSamples[:room]...)
		s.rollSamples = append(s.rollSamples, rollSamples[:room]...)
	}
}

func (s *Simulator) checkStop(sc StoppingCondition, tolerance float64) bool {
	s.Lock()
	defer s.Unlock()
	return shouldStop(&s.payoffStats, sc, tolerance)
}

// Simulate plays games until the budget is used up, the stopping condition
// is met or ctx is done. It is a blocking function. Cancellation is not an
// error; the result reports why the run stopped.
func (s *Simulator) Simulate(ctx context.Context, req Request) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if req.Rounds < 1 {
		return nil, fmt.Errorf("%w: a game needs at least one roll, got %d",
			pricing.ErrInvalidArgument, req.Rounds)
	}
	if req.Iterations <= 0 && (req.StoppingCondition == StopNone || req.Tolerance <= 0) {
		return nil, errNoBudget
	}
	if !s.simming.CompareAndSwap(false, true) {
		return nil, errors.New("a simulation is already running")
	}
	defer s.simming.Store(false)

	thresholds, err := pricing.Thresholds(req.Rounds)
	if err != nil {
		return nil, err
	}
	exact, err := pricing.ExactValue(req.Rounds)
	if err != nil {
		return nil, err
	}
	exactRolls, err := pricing.ExpectedRolls(req.Rounds)
	if err != nil {
		return nil, err
	}
	checkInterval := uint64(req.CheckInterval)
	if checkInterval == 0 {
		checkInterval = DefaultCheckInterval
	}

	s.reset()
	runID := uuid.NewString()
	logger.Info().Str("run", runID).Int("rounds", req.Rounds).Int("iterations", req.Iterations).
		Int("threads", s.threads).Str("stop", req.StoppingCondition.String()).Msg("sim-starting")

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stoppedByCondition atomic.Bool
	logChan := make(chan []byte)
	done := make(chan struct{})
	writer := errgroup.Group{}
	if s.logStream != nil {
		writer.Go(func() error {
			defer func() {
				logger.Debug().Msgf("Writer routine exiting")
			}()
			for {
				select {
				case bts := <-logChan:
					if _, err := s.logStream.Write(bts); err != nil {
						logger.Err(err).Msg("sim-log-write")
					}
				case <-done:
					return nil
				}
			}
		})
	}

	tstart := time.Now()
	g := errgroup.Group{}
	for t := 0; t < s.threads; t++ {
		t := t
		g.Go(func() error {
			defer func() {
				logger.Debug().Msgf("Thread %v exiting sim", t)
			}()
			logger.Debug().Msgf("Thread %v starting sim", t)
			rng := s.newRNG(t)

			payoffs := &stats.Statistic{}
			rolls := &stats.Statistic{}
			payoffSamples := make([]float64, 0, flushEvery)
			rollSamples := make([]float64, 0, flushEvery)
			flush := func() {
				s.merge(payoffs, rolls, payoffSamples, rollSamples)
				*payoffs = stats.Statistic{}
				*rolls = stats.Statistic{}
				payoffSamples = payoffSamples[:0]
				rollSamples = rollSamples[:0]
			}
			defer flush()

			var faces *[]int
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				iter := s.iterationCount.Add(1)
				if req.Iterations > 0 && iter > uint64(req.Iterations) {
					return nil
				}
				if s.logStream != nil {
					faces = &[]int{}
				}
				payoff, nrolls := playGame(rng, thresholds, faces)
				payoffs.Push(float64(payoff))
				rolls.Push(float64(nrolls))
				payoffSamples = append(payoffSamples, float64(payoff))
				rollSamples = append(rollSamples, float64(nrolls))

				if faces != nil {
					out, err := yaml.Marshal([]LogIteration{{
						Iteration: iter, Thread: t, Faces: *faces, Payoff: payoff,
					}})
					if err != nil {
						return err
					}
					logChan <- out
				}
				if len(payoffSamples) == flushEvery {
					flush()
				}
				if req.StoppingCondition != StopNone && iter%checkInterval == 0 {
					flush()
					logger.Debug().Uint64("numIters", iter).Msg("checking-stopping-condition")
					if s.checkStop(req.StoppingCondition, req.Tolerance) {
						logger.Info().Uint64("numIters", iter).Msg("reached stopping condition")
						stoppedByCondition.Store(true)
						cancel()
					}
				}
			}
		})
	}

	err = g.Wait()
	logger.Debug().Msgf("errgroup returned err %v", err)
	elapsed := time.Since(tstart)

	if s.logStream != nil {
		close(done)
		writer.Wait()
	}
	if err != nil {
		return nil, err
	}

	reason := StoppedBudget
	switch {
	case stoppedByCondition.Load():
		reason = StoppedConfidence
	case parent.Err() != nil:
		reason = StoppedCanceled
	}

	s.Lock()
	defer s.Unlock()
	res := &Result{
		RunID:         runID,
		Rounds:        req.Rounds,
		Iterations:    s.payoffStats.Iterations(),
		Exact:         exact,
		ExactRolls:    exactRolls,
		Payoff:        s.payoffStats,
		Rolls:         s.rollStats,
		Z:             req.StoppingCondition.Z(),
		Stopped:       reason,
		Elapsed:       elapsed,
		payoffSamples: append([]float64(nil), s.payoffSamples...),
		rollSamples:   append([]float64(nil), s.rollSamples...),
	}
	gps := float64(res.Iterations) / elapsed.Seconds()
	logger.Info().Str("run", runID).Int("iterations", res.Iterations).Float64("mean", res.Payoff.Mean()).
		Float64("exact", exact).Str("stopped", string(reason)).Float64("games-per-sec", gps).
		Msg("sim-ended")
	return res, nil
}
