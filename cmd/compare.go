package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/reconcile"
	"github.com/etnz/reconcile/renderer"
)

type compareCmd struct {
	jsonOut bool
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare two ingested documents" }
func (*compareCmd) Usage() string {
	return `rcs compare [-json] <doc1> <doc2>

  Reports the delta between two ingested documents: portfolio summary,
  asset allocation changes, per-security changes, new and removed
  securities, top gainers and losers, and the annualized return.

Usage Examples:
$ rcs compare 2023-03.json 2024-03.json

`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "output the comparison as JSON instead of markdown")
}

func (c *compareCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: exactly two document ids are required")
		return subcommands.ExitUsageError
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load store: %v\n", err)
		return subcommands.ExitFailure
	}

	comparison, err := reconcile.Compare(store, f.Arg(0), f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(comparison); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.ComparisonMarkdown(comparison))
	return subcommands.ExitSuccess
}
