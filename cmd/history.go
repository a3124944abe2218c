package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/reconcile"
	"github.com/etnz/reconcile/renderer"
)

type historyCmd struct{}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show the value history of one security" }
func (*historyCmd) Usage() string {
	return `rcs history <security-id>

  Shows every observation of one canonical security across the ingested
  documents. The id is an ISIN, or DESC:<normalized description> for
  securities that never carried one.

Usage Examples:
$ rcs history CH0012345678

`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one security id is required")
		return subcommands.ExitUsageError
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load store: %v\n", err)
		return subcommands.ExitFailure
	}

	sec, ok := store.Get(reconcile.SecurityID(f.Arg(0)))
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown security %q\n", f.Arg(0))
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.HistoryMarkdown(sec))
	return subcommands.ExitSuccess
}
