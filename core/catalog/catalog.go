// Package catalog keeps a registry loaded from a schema directory and
// reloads it when the documents change.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/structure/core/registry"
	"github.com/artpar/structure/core/schema"
)

// ReloadObserver is notified after every reload attempt.
type ReloadObserver interface {
	CatalogReloaded(schemas int, err error)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithRegistryOptions sets options applied to every registry the catalog loads.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(c *Catalog) { c.regOpts = append(c.regOpts, opts...) }
}

// WithReloadObserver sets the observer notified after reloads.
func WithReloadObserver(o ReloadObserver) Option {
	return func(c *Catalog) { c.observer = o }
}

// WithDebounce sets how long Watch waits for a burst of file events to
// settle before reloading. Zero reloads on every event.
func WithDebounce(d time.Duration) Option {
	return func(c *Catalog) { c.debounce = d }
}

// Catalog provides thread-safe access to a registry with hot reload support.
type Catalog struct {
	dir      string
	logger   zerolog.Logger
	regOpts  []registry.Option
	observer ReloadObserver
	debounce time.Duration

	current atomic.Pointer[registry.Registry]

	mu       sync.Mutex // serializes reloads and guards onChange
	onChange []func(*registry.Registry)

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New loads every schema document under dir.
func New(dir string, logger zerolog.Logger, opts ...Option) (*Catalog, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	c := &Catalog{
		dir:    absDir,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.regOpts = append([]registry.Option{registry.WithLogger(logger)}, c.regOpts...)

	reg, err := c.load()
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	c.current.Store(reg)

	return c, nil
}

// Dir returns the absolute schema directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Registry returns the current registry.
func (c *Catalog) Registry() *registry.Registry {
	return c.current.Load()
}

// Get returns a definition from the current registry.
func (c *Catalog) Get(name string) (*schema.Definition, error) {
	return c.Registry().Get(name)
}

// Reload loads the directory into a new registry and swaps it in.
// Returns error if loading fails (keeps old registry).
func (c *Catalog) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info().Str("dir", c.dir).Msg("reloading schemas")

	reg, err := c.load()
	if err != nil {
		c.logger.Error().Err(err).Msg("schema reload failed, keeping old schemas")
		return fmt.Errorf("reload schemas: %w", err)
	}

	old := c.current.Swap(reg)
	c.logChanges(old, reg)

	for _, fn := range c.onChange {
		fn(reg)
	}

	c.logger.Info().Int("schemas", reg.Len()).Msg("schemas reloaded successfully")
	return nil
}

// OnChange registers a callback to be called after a successful reload.
func (c *Catalog) OnChange(fn func(*registry.Registry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// Watch starts watching the schema directory tree. Changes to schema
// documents trigger a reload.
func (c *Catalog) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// fsnotify is not recursive
	err = filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	c.watcher = watcher

	go c.watchLoop()

	c.logger.Info().Str("dir", c.dir).Msg("watching schemas for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (c *Catalog) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				c.logger.Info().Msg("received SIGHUP, reloading schemas")
				_ = c.Reload()
			case <-c.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()
}

// Stop stops watching for file changes and signals.
func (c *Catalog) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.watcher != nil {
		c.watcher.Close()
	}
}

func (c *Catalog) load() (*registry.Registry, error) {
	reg, err := registry.LoadDir(c.dir, c.regOpts...)
	if c.observer != nil {
		n := 0
		if reg != nil {
			n = reg.Len()
		}
		c.observer.CatalogReloaded(n, err)
	}
	return reg, err
}

func (c *Catalog) watchLoop() {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !c.relevant(event) {
				continue
			}

			c.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("schema file changed")

			if c.debounce <= 0 {
				_ = c.Reload()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(c.debounce)
			} else {
				timer.Reset(c.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			_ = c.Reload()

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error().Err(err).Msg("file watcher error")

		case <-c.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevant reports whether event touches a schema document. New
// directories are added to the watch and count as a change.
func (c *Catalog) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := c.watcher.Add(event.Name); err != nil {
				c.logger.Error().Err(err).Str("dir", event.Name).Msg("watch new directory")
			}
			return true
		}
	}
	if !schema.IsDocumentFile(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

func (c *Catalog) logChanges(old, new *registry.Registry) {
	before := make(map[string]bool)
	if old != nil {
		for _, name := range old.Names() {
			before[name] = true
		}
	}
	for _, name := range new.Names() {
		if !before[name] {
			c.logger.Info().Str("schema", name).Msg("schema added")
		}
		delete(before, name)
	}
	for name := range before {
		c.logger.Info().Str("schema", name).Msg("schema removed")
	}
}
