package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/domino14/dicegame/config"
	"github.com/domino14/dicegame/model"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct{}

func NewShellCompleter() *ShellCompleter {
	return &ShellCompleter{}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var kindNames = lo.Map(model.Kinds(), func(k model.Kind, _ int) string { return k.String() })

var commandMetadata = map[string]CommandMetadata{
	"sim": {
		Options: []string{"-iters", "-threads", "-confidence", "-tolerance"},
		Args:    []string{"stop", "show", "hist", "log"},
	},
	"model":   {Args: kindNames},
	"compare": {Args: kindNames},
	"plot": {
		Options: []string{"-out"},
		Args:    kindNames,
	},
	"export": {Options: []string{"-kind", "-places", "-file"}},
	"fit":    {Options: []string{"-apply"}},
	"set": {
		Args: []string{
			config.ConfigModelAsymptote, config.ConfigModelAmplitude,
			config.ConfigModelDecay, config.ConfigModelFirstPrice,
			config.ConfigModelRatio, config.ConfigSimThreads,
			config.ConfigSimIterations, config.ConfigSimSeed,
			config.ConfigSimStop, config.ConfigSimTolerance,
			config.ConfigPlotDir, config.ConfigPlotWidth,
			config.ConfigPlotHeight, config.ConfigExportPlaces,
		},
	},
	"help": {Args: []string{"sim", "model", "plot", "export", "set", "script"}},
}

var commandNames = []string{
	"help", "value", "price", "toss", "model", "table", "compare", "fit",
	"verify", "sim", "plot", "notebook", "export", "set", "script", "exit",
}

var boolValues = []string{"true", "false"}
var stopValues = []string{"none", "95", "98", "99"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "confidence":
				completions = stopValues
			case "apply":
				completions = boolValues
			case "kind":
				completions = kindNames
			}
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else if len(fields) == 1 || (len(fields) == 2 && !endsWithSpace) {
					// only the first argument takes fixed values
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
