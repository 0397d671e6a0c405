package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/structure/config"
	"github.com/artpar/structure/core/registry"
)

var watchCmd = &cobra.Command{
	Use:   "watch <schema> <file>",
	Short: "Re-parse a file whenever it or the schemas change",
	Long: `Parse file with the named schema, then keep watching. The file is
parsed again whenever it changes or a schema document changes. A schema
change that breaks the directory keeps the last good schemas.

The log level follows changes to the config file without a restart.
Send SIGHUP to force a schema reload.

Examples:
  structure watch shop.Order order.json
  structure watch Order order.json --output yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&parseOutput, "output", "o", "json", "output format: json or yaml")
	watchCmd.Flags().BoolVar(&parsePretty, "pretty", false, "indent JSON output")
	watchCmd.Flags().StringArrayVar(&parseSet, "set", nil, "override an attribute (key=value, repeatable)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	overrides, err := parseOverrides(parseSet)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the global level filters from here on, so config reloads can change it
	if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	logger = logger.Level(zerolog.TraceLevel)

	if h := watchConfig(); h != nil {
		defer h.Stop()
	}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Stop()

	if err := cat.Watch(); err != nil {
		return err
	}
	cat.WatchSignals()

	schemasChanged := make(chan struct{}, 1)
	cat.OnChange(func(*registry.Registry) {
		select {
		case schemasChanged <- struct{}{}:
		default:
		}
	})

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	input, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer input.Close()
	if err := input.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch input: %w", err)
	}

	out := cmd.OutOrStdout()
	reparse := func() {
		def, err := cat.Get(name)
		if err == nil {
			var data []byte
			if data, err = os.ReadFile(absPath); err == nil {
				var result any
				if result, err = parseInput(def, data, overrides); err == nil {
					err = writeResult(out, result)
				}
			}
		}
		if err != nil {
			reportError(out, err)
		}
	}

	reparse()
	return watchLoop(ctx, input, absPath, schemasChanged, reparse)
}

func watchLoop(ctx context.Context, input *fsnotify.Watcher, path string, schemasChanged <-chan struct{}, reparse func()) error {
	filename := filepath.Base(path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-input.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("input changed")
				reparse()
			}

		case err, ok := <-input.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("file watcher error")

		case <-schemasChanged:
			reparse()
		}
	}
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", crossMark, err)
}

// watchConfig follows the config file when there is one and applies
// logging changes. Returns nil when there is nothing to watch.
func watchConfig() *config.Holder {
	if _, err := os.Stat(cfgFile); err != nil {
		return nil
	}

	h, err := config.NewHolder(cfgFile, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("config hot reload disabled")
		return nil
	}

	h.OnChange(func(c *config.Config) {
		if lvl, err := zerolog.ParseLevel(c.Logging.Level); err == nil && logLevel == "" {
			zerolog.SetGlobalLevel(lvl)
		}
	})
	if err := h.WatchFile(); err != nil {
		logger.Warn().Err(err).Msg("config hot reload disabled")
		h.Stop()
		return nil
	}
	return h
}
