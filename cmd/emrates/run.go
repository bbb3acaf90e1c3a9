package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/astroflux/emrates/photonfield"
	"github.com/astroflux/emrates/pipeline"
	"github.com/astroflux/emrates/rate"
	"github.com/astroflux/emrates/store"
	"github.com/astroflux/emrates/xsec"
)

// runConfig mirrors the run subcommand flags for YAML configuration files.
type runConfig struct {
	Processes []string `yaml:"processes"`
	Fields    []string `yaml:"fields"`
	OutDir    string   `yaml:"outdir"`
	CacheDir  string   `yaml:"cachedir"`
	StorePath string   `yaml:"store"`
	Coarse    bool     `yaml:"coarse"`
}

func defaultRunConfig() runConfig {
	return runConfig{
		Processes: []string{"pp", "dpp", "ics", "tpp"},
		Fields:    []string{"CMB"},
		OutDir:    "data",
		CacheDir:  "data/fieldDensity",
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML run configuration")
	processes := fs.String("processes", "", "Comma-separated processes (pp, dpp, ics, tpp)")
	fieldNames := fs.String("fields", "", "Comma-separated photon field names")
	outDir := fs.String("out", "", "Output directory for rate tables")
	cacheDir := fs.String("cache", "", "Directory for density-integral tables")
	storePath := fs.String("store", "", "SQLite catalog path (optional)")
	coarse := fs.Bool("coarse", false, "Use reduced tabulation resolution")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: emrates run [options]

Compute interaction rate and cumulative differential rate tables for each
(process, field) pair. Flags override values from --config.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # All processes on the CMB at production resolution
  emrates run --out data

  # Quick coarse run of pair production only
  emrates run --processes pp --coarse --out /tmp/rates
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultRunConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	if *processes != "" {
		cfg.Processes = strings.Split(*processes, ",")
	}
	if *fieldNames != "" {
		cfg.Fields = strings.Split(*fieldNames, ",")
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *coarse {
		cfg.Coarse = true
	}

	var procs []xsec.Process
	for _, name := range cfg.Processes {
		p, err := xsec.ParseProcess(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		procs = append(procs, p)
	}
	var flds []photonfield.Field
	for _, name := range cfg.Fields {
		f, err := builtinField(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		flds = append(flds, f)
	}

	runner := pipeline.NewRunner(cfg.OutDir, cfg.CacheDir)
	if cfg.Coarse {
		runner.Opts = rate.CoarseOptions()
	}
	if cfg.StorePath != "" {
		db, err := store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer db.Close()
		runner.Store = db
	}

	return runner.RunAll(procs, flds)
}

func builtinField(name string) (photonfield.Field, error) {
	switch name {
	case "CMB":
		return photonfield.CMB(), nil
	}
	return nil, fmt.Errorf("unknown photon field: %q", name)
}

func fields(args []string) error {
	fs := flag.NewFlagSet("fields", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cmb := photonfield.CMB()
	min, max := cmb.EnergyRange()
	fmt.Printf("%s\t[%.3e, %.3e] eV\n", cmb.Name(), min/xsec.ElectronVolt, max/xsec.ElectronVolt)
	return nil
}
