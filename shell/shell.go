package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/dicegame/config"
	"github.com/domino14/dicegame/montecarlo"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errSimming           = errors.New("simming already, please do a `sim stop` first")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

// CmdOptions are the -key value pairs of a command line.
type CmdOptions map[string]string

func (c CmdOptions) String(key string) string {
	return c[key]
}

func (c CmdOptions) StringDefault(key, def string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

func (c CmdOptions) Int(key string) (int, error) {
	v, ok := c[key]
	if !ok {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v, ok := c[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) FloatDefault(key string, defaultF float64) (float64, error) {
	v, ok := c[key]
	if !ok {
		return defaultF, nil
	}
	return strconv.ParseFloat(v, 64)
}

func (c CmdOptions) Bool(key string) bool {
	return strings.ToLower(c[key]) == "true"
}

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config
	// printer formats numbers for display, with digit grouping.
	printer *message.Printer

	// interactive shells run simulations in the background.
	interactive bool

	simmer     *montecarlo.Simulator
	simMu      sync.Mutex
	simCancel  context.CancelFunc
	simDone    chan struct{}
	simResult  *montecarlo.Result
	simErr     error
	simLogFile *os.File
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func newController(cfg *config.Config, out io.Writer) *ShellController {
	return &ShellController{
		out:     out,
		config:  cfg,
		printer: message.NewPrinter(language.English),
	}
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := newController(cfg, os.Stderr)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mdicegame>\033[0m ",
		HistoryFile:     "/tmp/dicegame-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// isOption is true for -key tokens. Negative numbers are arguments.
func isOption(field string) bool {
	if len(field) < 2 || field[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(field, 64)
	return err != nil
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if isOption(fields[idx]) {
			if idx+1 >= len(fields) {
				return nil, errWrongOptionSyntax
			}
			options[fields[idx][1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	log.Debug().Msgf("cmd: %v, args: %v, options: %v", cmd, args, options)
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		sig <- syscall.SIGINT
		return nil, errors.New("sending quit signal")
	case "help":
		return sc.help(cmd)
	case "value", "v":
		return sc.value(cmd)
	case "price", "p":
		return sc.price(cmd)
	case "toss":
		return sc.toss(cmd)
	case "model":
		return sc.model(cmd)
	case "table":
		return sc.table(cmd)
	case "compare":
		return sc.compare(cmd)
	case "fit":
		return sc.fit(cmd)
	case "verify":
		return sc.verify(cmd)
	case "sim":
		return sc.sim(cmd)
	case "plot":
		return sc.plot(cmd)
	case "notebook":
		return sc.notebook(cmd)
	case "export":
		return sc.export(cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(cmd)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line, as given on the command line of the
// program.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		sc.showError(err)
	} else if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	sc.interactive = true

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		resp, err := sc.standardModeSwitch(line, sig)
		if err != nil {
			if line == "exit" || line == "bye" {
				break
			}
			sc.showError(err)
		} else if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops a running simulation and releases its log file.
func (sc *ShellController) Cleanup() {
	sc.simMu.Lock()
	cancel, done := sc.simCancel, sc.simDone
	sc.simMu.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			log.Warn().Msg("simulation did not stop in time")
		}
	}
	if sc.simLogFile != nil {
		if err := sc.simLogFile.Close(); err != nil {
			log.Err(err).Msg("closing-sim-log")
		}
		sc.simLogFile = nil
	}
}
