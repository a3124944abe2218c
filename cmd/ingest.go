package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type ingestCmd struct {
	extract bool
}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "ingest extracted snapshots into the store" }
func (*ingestCmd) Usage() string {
	return `rcs ingest [-extract] <snapshot.json>...

  Enters one or more extracted document snapshots into the store, resolving
  every security record to its canonical security. Re-ingesting a document
  replaces its previous contribution.

Usage Examples:
# Ingest a clean snapshot.
$ rcs ingest 2023-03.json

# Ingest loose extractor output, probing known field layouts.
$ rcs ingest -extract raw-statement.json

`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.extract, "extract", false, "treat input as loose extractor output instead of a clean snapshot")
}

func (c *ingestCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one snapshot file is required")
		return subcommands.ExitUsageError
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load store: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, filename := range f.Args() {
		snap, err := loadSnapshot(filename, c.extract)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", filename, err)
			return subcommands.ExitFailure
		}
		report, err := store.Ingest(snap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting %q: %v\n", filename, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Ingested %q: %d records, %d matched, %d created, %d skipped\n",
			report.DocID, report.Records, report.Matched, report.Created, report.Skipped)
	}

	if err := SaveStore(store); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving store: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
