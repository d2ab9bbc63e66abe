// Command parsearch aggregates parquet data into grouped, sorted tables,
// from the command line or as an HTTP search service.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vegasq/parsearch/internal/config"
	"github.com/vegasq/parsearch/internal/logger"
	"github.com/vegasq/parsearch/search"
	"github.com/vegasq/parsearch/table"
)

type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "parsearch",
		Short:         "Aggregate parquet data into grouped, sorted tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newQueryCmd(a),
		newServeCmd(a),
		newFieldsCmd(a),
		newDateMathCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) cacheConfig() search.CacheConfig {
	s := a.cfg.Search
	return search.CacheConfig{
		Options: search.Options{
			StoreSizes:        table.NewSizes(s.StoreSizes),
			DefaultMaxResults: table.NewSizes(s.DefaultMaxResults),
			BatchSize:         s.BatchSize,
			Locale:            a.cfg.Locale,
		},
		Workers:       s.Workers,
		MaxIdle:       s.MaxIdle,
		MaxAge:        s.MaxAge,
		SweepInterval: s.SweepInterval,
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
