// Command epubsplit splits a source ePub into one single-chapter ePub per
// unit of a YAML unit table.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/simp-lee/epubsplit"
	"github.com/simp-lee/epubsplit/internal/yamlutil"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCodeFor(err))
}

func run(args []string, stdout, stderr io.Writer) error {
	flags, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if flags.version {
		fmt.Fprintln(stdout, "epubsplit", Version)
		return nil
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if flags.dumpConfig {
		out, err := yamlutil.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}

	log := newLogger(stderr, flags.verbose, flags.quiet)
	defer func() { _ = log.Sync() }()

	builder := epubsplit.NewBuilder(epubsplit.Options{
		Logger:      log,
		StopOnError: flags.stopOnError,
		Verify:      flags.verify,
	})
	report, err := builder.Run(cfg)

	built := len(report.Results) - len(report.Failed())
	log.Info("done",
		zap.Int("built", built),
		zap.Int("failed", len(report.Failed())),
		zap.Int64("bytes", report.Bytes()),
		zap.String("output", cfg.OutputDir),
	)
	return err
}

// loadConfig reads the config file, or takes the built-in config when none
// is given, and applies command-line overrides.
func loadConfig(flags *cliFlags) (epubsplit.Config, error) {
	cfg := epubsplit.DefaultConfig()
	if flags.config != "" {
		var err error
		if cfg, err = epubsplit.LoadConfig(flags.config); err != nil {
			return cfg, err
		}
	}
	if flags.source != "" {
		cfg.Source = flags.source
	}
	if flags.workDir != "" {
		cfg.WorkDir = flags.workDir
	}
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	if flags.config == "" {
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	units, err := cfg.Units.Select(flags.units)
	if err != nil {
		return cfg, err
	}
	cfg.Units = units
	return cfg, nil
}
