package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/structure/adapters/metrics"
	"github.com/artpar/structure/config"
	"github.com/artpar/structure/core/catalog"
	"github.com/artpar/structure/core/registry"
)

var (
	// Global flags
	cfgFile    string
	schemasDir string
	logLevel   string
)

// Set up by loadEnvironment before every command runs.
var (
	cfg       *config.Config
	logger    zerolog.Logger
	collector *metrics.Collector
	promReg   *prometheus.Registry
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "structure",
	Short: "Parse and validate data against typed record schemas",
	Long: `structure parses untyped JSON input into typed records using schema
definitions written as YAML documents.

Quick start:
  structure validate                   # Check every schema document
  structure describe shop.Order        # Show a schema's signature
  structure parse shop.Order in.json   # Parse input into a record

Configuration is read from structure.yaml (or --config) and
STRUCTURE_* environment variables.`,
	SilenceUsage:       true,
	PersistentPreRunE:  loadEnvironment,
	PersistentPostRunE: writeMetrics,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "structure.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&schemasDir, "schemas", "s", "", "schema directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func loadEnvironment(cmd *cobra.Command, args []string) error {
	c, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if schemasDir != "" {
		c.Schemas.Dir = schemasDir
	}
	if logLevel != "" {
		if _, err := zerolog.ParseLevel(logLevel); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		c.Logging.Level = logLevel
	}

	cfg = c
	logger = cfg.Logging.NewLogger()

	collector, promReg = nil, nil
	if cfg.Metrics.Enabled {
		promReg = prometheus.NewRegistry()
		collector = metrics.New(promReg, cfg.Metrics.Namespace)
	}

	return nil
}

func writeMetrics(cmd *cobra.Command, args []string) error {
	if promReg == nil || cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, promReg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	logger.Debug().Str("path", cfg.Metrics.Textfile).Msg("metrics written")
	return nil
}

// openCatalog loads the configured schema directory.
func openCatalog() (*catalog.Catalog, error) {
	opts := []catalog.Option{catalog.WithDebounce(cfg.Schemas.Debounce)}
	if collector != nil {
		opts = append(opts,
			catalog.WithRegistryOptions(registry.WithObserver(collector)),
			catalog.WithReloadObserver(collector),
		)
	}

	cat, err := catalog.New(cfg.Schemas.Dir, logger, opts...)
	if err != nil {
		return nil, err
	}
	return cat, nil
}
