package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		if err := run(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "fields":
		if err := fields(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "catalog":
		if err := catalog(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("emrates version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`emrates - electromagnetic interaction rate tables

Usage:
  emrates <command> [options]

Commands:
  run        Compute rate and cumulative tables for (process, field) pairs
  fields     List the built-in photon fields
  catalog    Show the table catalog of previous runs
  help       Show this help message
  version    Show version information

Examples:
  # Pair production and inverse Compton scattering on the CMB
  emrates run --processes pp,ics --fields CMB --out data

  # Run from a YAML configuration
  emrates run --config run.yaml

  # Inspect what previous runs produced
  emrates catalog --store data/catalog.db

For command-specific help, run:
  emrates <command> --help`)
}
