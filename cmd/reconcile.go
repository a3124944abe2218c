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

type reconcileCmd struct {
	reference float64
	jsonOut   bool
	apply     bool
	extract   bool
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "validate a snapshot's arithmetic" }
func (*reconcileCmd) Usage() string {
	return `rcs reconcile [-reference <total>] [-json] [-apply] <snapshot.json>

  Checks the snapshot's totals against its own component data: portfolio
  value against the securities sum, the asset allocation table, and every
  line item's nominal x price. Reports issues, proposed corrections and a
  confidence score.

Usage Examples:
# Report issues on a snapshot.
$ rcs reconcile 2023-03.json

# Supply the known-good portfolio total, enabling severe-mismatch corrections.
$ rcs reconcile -reference 19510599 2023-03.json

# Print the corrected snapshot instead of a report.
$ rcs reconcile -reference 19510599 -apply 2023-03.json

`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.reference, "reference", 0, "known-good portfolio total for this document series")
	f.BoolVar(&c.jsonOut, "json", false, "output the result as JSON instead of markdown")
	f.BoolVar(&c.apply, "apply", false, "apply the proposed corrections and print the corrected snapshot")
	f.BoolVar(&c.extract, "extract", false, "treat input as loose extractor output instead of a clean snapshot")
}

func (c *reconcileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one snapshot file is required")
		return subcommands.ExitUsageError
	}
	snap, err := loadSnapshot(f.Arg(0), c.extract)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	var engineOpts []reconcile.EngineOption
	var scorerOpts []reconcile.ScorerOption
	if c.reference != 0 {
		ref := reconcile.Q(c.reference)
		engineOpts = append(engineOpts, reconcile.WithReferenceTotal(ref))
		scorerOpts = append(scorerOpts, reconcile.WithScorerReference(ref))
	}

	engine := reconcile.NewEngine(engineOpts...)
	issues, corrections := engine.Validate(snap)
	result := &reconcile.ReconciliationResult{
		Issues:      issues,
		Corrections: corrections,
		Confidence:  reconcile.NewScorer(scorerOpts...).ScoreSnapshot(snap, issues),
	}

	if c.apply {
		corrected := reconcile.Apply(snap, corrections)
		if err := reconcile.EncodeSnapshot(os.Stdout, corrected); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	if c.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.ReconciliationMarkdown(snap, result))
	return subcommands.ExitSuccess
}
