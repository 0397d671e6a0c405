package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder keeps the current configuration and reloads it when the file
// changes or the process receives SIGHUP. A failed reload keeps the
// previous configuration.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	onChange []func(*Config)

	path    string
	logger  zerolog.Logger
	watcher *fsnotify.Watcher

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads the configuration at path.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		config: cfg,
		path:   absPath,
		logger: logger.With().Str("config", absPath).Logger(),
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Reload reads the file again. On error the current configuration stays.
func (h *Holder) Reload() error {
	newCfg, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.config
	h.config = newCfg
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)

	for _, fn := range listeners {
		fn(newCfg)
	}

	h.logger.Debug().Msg("config reloaded")
	return nil
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile reloads when the config file is written. Bursts of events
// within schemas.debounce are coalesced into one reload.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// editors that save atomically replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop()

	h.logger.Debug().Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop is called.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				_ = h.Reload()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			delay := h.Get().Schemas.Debounce
			if delay <= 0 {
				_ = h.Reload()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			_ = h.Reload()

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(old, new *Config) {
	if old.Logging.Level != new.Logging.Level {
		h.logger.Info().
			Str("old", old.Logging.Level).
			Str("new", new.Logging.Level).
			Msg("log level changed")
	}

	if old.Logging.Format != new.Logging.Format {
		h.logger.Info().
			Str("old", old.Logging.Format).
			Str("new", new.Logging.Format).
			Msg("log format changed")
	}

	if old.Metrics.Textfile != new.Metrics.Textfile {
		h.logger.Info().
			Str("old", old.Metrics.Textfile).
			Str("new", new.Metrics.Textfile).
			Msg("metrics textfile changed")
	}

	for _, field := range changedNonReloadable(old, new) {
		h.logger.Warn().Str("field", field).Msg("change requires a restart")
	}
}

func changedNonReloadable(old, new *Config) []string {
	var fields []string
	if old.Schemas.Dir != new.Schemas.Dir {
		fields = append(fields, "schemas.dir")
	}
	if old.Metrics.Enabled != new.Metrics.Enabled {
		fields = append(fields, "metrics.enabled")
	}
	if old.Metrics.Namespace != new.Metrics.Namespace {
		fields = append(fields, "metrics.namespace")
	}
	return fields
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string {
	return []string{
		"logging.level",
		"logging.format",
		"metrics.textfile",
		"schemas.debounce",
	}
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return []string{
		"schemas.dir",
		"metrics.enabled",
		"metrics.namespace",
	}
}
