package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/reconcile/renderer"
)

type securitiesCmd struct{}

func (*securitiesCmd) Name() string     { return "securities" }
func (*securitiesCmd) Synopsis() string { return "list the canonical securities in the store" }
func (*securitiesCmd) Usage() string {
	return `rcs securities

  Lists every canonical security known to the store, with its aliases and
  the documents it was observed in.

`
}

func (c *securitiesCmd) SetFlags(f *flag.FlagSet) {}

func (c *securitiesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load store: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.SecuritiesMarkdown(store))
	return subcommands.ExitSuccess
}
