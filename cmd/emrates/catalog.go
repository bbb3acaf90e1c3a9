package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/astroflux/emrates/store"
)

func catalog(args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	storePath := fs.String("store", "data/catalog.db", "SQLite catalog path")
	runID := fs.String("run", "", "Show only entries for this run ID")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: emrates catalog [options]

List the tables recorded by previous runs.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := store.Open(*storePath)
	if err != nil {
		return err
	}
	defer db.Close()

	var entries []store.Entry
	if *runID != "" {
		entries, err = db.ListRun(*runID)
	} else {
		entries, err = db.List()
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("catalog is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\t%s\t%d rows\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Process, e.Field, e.Kind, e.Rows, e.Path, e.RunID)
	}
	return nil
}
