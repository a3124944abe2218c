// Package cmd implements the CLI application to reconcile portfolio
// document snapshots.
package cmd

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/reconcile"
)

// Commands lists every subcommand of the application. A main package
// registers them all and executes the user-selected one.
var Commands = []subcommands.Command{
	&ingestCmd{},
	&reconcileCmd{},
	&compareCmd{},
	&securitiesCmd{},
	&historyCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeFile = flag.String("store-file", "reconcile.jsonl", "Path to the store file (JSONL format)")

// OpenStore loads the store from the app store file. A missing file yields
// an empty store, so the first ingest works out of the box.
func OpenStore() (*reconcile.Store, error) {
	f, err := os.Open(*storeFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, store does not exist, starting from an empty store instead")
		return reconcile.NewStore(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return reconcile.DecodeStore(f)
}

// SaveStore writes the store back to the app store file.
func SaveStore(s *reconcile.Store) error {
	f, err := os.Create(*storeFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return reconcile.EncodeStore(f, s)
}

// loadSnapshot reads a snapshot file, extracting it from loose upstream
// output when extract is set.
func loadSnapshot(filename string, extract bool) (*reconcile.DocumentSnapshot, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open snapshot file %q: %w", filename, err)
	}
	defer f.Close()

	if !extract {
		return reconcile.DecodeSnapshot(f)
	}
	var jobj any
	if err := json.NewDecoder(f).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("cannot parse %q: %w", filename, err)
	}
	return reconcile.ExtractSnapshot(filename, jobj)
}
