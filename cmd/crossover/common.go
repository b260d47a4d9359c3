package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/crossover/internal/app"
	"github.com/newthinker/crossover/internal/config"
	"github.com/newthinker/crossover/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// sourceFlags are shared by every command that reads prices.
type sourceFlags struct {
	csv   string
	start string
	end   string
	json  bool
}

func (f *sourceFlags) register(fs *pflag.FlagSet, withRange bool) {
	fs.StringVar(&f.csv, "csv", "", "read closes from a date,close CSV file instead of the configured source")
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	if withRange {
		fs.StringVar(&f.start, "start", "", "first date YYYY-MM-DD (default: configured start)")
		fs.StringVar(&f.end, "end", "", "last date YYYY-MM-DD (default: latest close)")
	}
}

func (f *sourceFlags) rng() app.Range {
	return app.Range{Start: f.start, End: f.end}
}

func newLogger() (*zap.Logger, error) {
	if logLevel == "" {
		return logger.New(debug)
	}
	return logger.NewWithLevel(debug, logLevel)
}

// loadConfig reads --config or falls back to defaults, then validates.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// buildApp loads configuration, applies the --csv override and wires the
// application.
func buildApp(src *sourceFlags, opts ...app.Option) (*app.App, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(log)
	if err != nil {
		return nil, nil, err
	}
	if src != nil && src.csv != "" {
		cfg.Source.Provider = "csv"
		cfg.Source.CSVPath = src.csv
	}
	a, err := app.New(cfg, log, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// emit writes v as indented JSON or through the text renderer.
func emit(cmd *cobra.Command, asJSON bool, v any, text func(io.Writer) error) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(out)
}
