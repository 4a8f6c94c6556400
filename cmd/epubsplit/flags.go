package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// errUsage marks command-line mistakes.
var errUsage = errors.New("usage error")

// cliFlags holds every command-line flag.
type cliFlags struct {
	config      string
	source      string
	workDir     string
	outputDir   string
	units       []string
	stopOnError bool
	verify      bool
	dumpConfig  bool
	quiet       bool
	verbose     bool
	version     bool
}

func newFlagSet(f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("epubsplit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVarP(&f.config, "config", "c", "", "YAML config with the source path, attribution and unit table (default: built-in table)")
	fs.StringVar(&f.source, "source", "", "source ePub (overrides config)")
	fs.StringVar(&f.workDir, "work-dir", "", "extraction directory (overrides config)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "output directory (overrides config)")
	fs.StringSliceVarP(&f.units, "unit", "u", nil, "build only these unit ids (repeatable, comma separated)")
	fs.BoolVar(&f.stopOnError, "stop-on-error", false, "abort at the first unit that fails")
	fs.BoolVar(&f.verify, "verify", false, "read every package back and check its structure")
	fs.BoolVar(&f.dumpConfig, "dump-config", false, "print the effective config as YAML and exit")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: epubsplit -c units.yaml [flags]\n       epubsplit --source book.epub [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args (without the program name).
func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{}
	fs := newFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	if f.quiet && f.verbose {
		return nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", errUsage)
	}
	if f.config == "" && f.source == "" && !f.version {
		return nil, fmt.Errorf("%w: --config or --source is required", errUsage)
	}
	return f, nil
}
