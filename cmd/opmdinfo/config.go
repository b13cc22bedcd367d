package main

import (
	"flag"
	"fmt"

	"gopkg.in/gcfg.v1"
)

// config is the merged configuration of a run. Fields map to sections and
// variables of the config file:
//
//	[series]
//	species = electrons
//	iteration = 100
//	workers = 4
//
//	[select]
//	expr = uz > 0.5
//	engine = cel
//
//	[histogram]
//	quantity = uz
//	bins = 40
type config struct {
	Series struct {
		Species   string
		Iteration int64
		Workers   int
	}
	Select struct {
		Expr   string
		Engine string
	}
	Histogram struct {
		Quantity string
		Bins     int
	}
}

func defaultConfig() *config {
	cfg := &config{}
	cfg.Series.Iteration = -1
	cfg.Select.Engine = "expr"
	cfg.Histogram.Bins = 20
	return cfg
}

// loadConfig reads name into cfg. Unknown variables are ignored.
func loadConfig(cfg *config, name string) error {
	if err := gcfg.FatalOnly(gcfg.ReadFileInto(cfg, name)); err != nil {
		return fmt.Errorf("reading config %s: %w", name, err)
	}
	return nil
}

// flags holds command-line values that override the config file.
type flags struct {
	config    string
	species   string
	iteration int64
	workers   int
	sel       string
	engine    string
	quantity  string
	bins      int
	tree      bool
	synth     string
	verbose   bool
}

func parseFlags(args []string) (*flags, *flag.FlagSet, error) {
	f := &flags{}
	fs := flag.NewFlagSet("opmdinfo", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "config `file` (gcfg format)")
	fs.StringVar(&f.species, "species", "", "only report this `species`")
	fs.Int64Var(&f.iteration, "iteration", -1, "iteration to report; the last one when negative")
	fs.IntVar(&f.workers, "workers", 0, "concurrent file reads")
	fs.StringVar(&f.sel, "select", "", "particle selection `expression`")
	fs.StringVar(&f.engine, "engine", "", "selection language: expr or cel")
	fs.StringVar(&f.quantity, "hist", "", "quantity to histogram; the first one stored when empty")
	fs.IntVar(&f.bins, "bins", 0, "histogram bins")
	fs.BoolVar(&f.tree, "tree", false, "print the HDF5 object tree of each file")
	fs.StringVar(&f.synth, "synth", "", "write a synthetic openPMD file to `path` and exit")
	fs.BoolVar(&f.verbose, "v", false, "log every read")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// merge builds the run configuration: defaults, then the config file,
// then the flags given on the command line.
func merge(f *flags, fs *flag.FlagSet) (*config, error) {
	cfg := defaultConfig()
	if f.config != "" {
		if err := loadConfig(cfg, f.config); err != nil {
			return nil, err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "species":
			cfg.Series.Species = f.species
		case "iteration":
			cfg.Series.Iteration = f.iteration
		case "workers":
			cfg.Series.Workers = f.workers
		case "select":
			cfg.Select.Expr = f.sel
		case "engine":
			cfg.Select.Engine = f.engine
		case "hist":
			cfg.Histogram.Quantity = f.quantity
		case "bins":
			cfg.Histogram.Bins = f.bins
		}
	})
	if cfg.Select.Engine != "expr" && cfg.Select.Engine != "cel" {
		return nil, fmt.Errorf("unknown selection engine %q", cfg.Select.Engine)
	}
	if cfg.Histogram.Bins < 1 {
		return nil, fmt.Errorf("bins must be positive, got %d", cfg.Histogram.Bins)
	}
	return cfg, nil
}
