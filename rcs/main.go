// Command rcs reconciles portfolio document snapshots: it ingests extracted
// statements, resolves securities across documents, validates totals and
// compares portfolios over time.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/reconcile/cmd"
)

func main() {
	// Shell completion, active only when invoked by the completion hooks.
	completion().Complete("rcs")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	files := predict.Files("*.json")
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"store-file": predict.Files("*.jsonl"),
		},
		Sub: map[string]*complete.Command{
			"ingest": {
				Flags: map[string]complete.Predictor{"extract": predict.Nothing},
				Args:  files,
			},
			"reconcile": {
				Flags: map[string]complete.Predictor{
					"reference": predict.Something,
					"json":      predict.Nothing,
					"apply":     predict.Nothing,
					"extract":   predict.Nothing,
				},
				Args: files,
			},
			"compare": {
				Flags: map[string]complete.Predictor{"json": predict.Nothing},
				Args:  predict.Something,
			},
			"securities": {},
			"history":    {Args: predict.Something},
			"topic":      {Args: predict.Something},
		},
	}
}
