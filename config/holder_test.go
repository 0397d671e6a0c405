package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/structure/config"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Schemas.Dir != "defs" {
		t.Errorf("Schemas.Dir = %s, want defs", got.Schemas.Dir)
	}
}

func TestNewHolder_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")
	if _, err := config.NewHolder(path, zerolog.Nop()); err == nil {
		t.Error("NewHolder should fail for invalid config")
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if lvl := h.Get().Logging.Level; lvl != "info" {
		t.Errorf("initial Logging.Level = %s, want info", lvl)
	}

	newContent := `
schemas:
  dir: "defs"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if lvl := h.Get().Logging.Level; lvl != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", lvl)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var called bool
	var receivedCfg *config.Config

	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		called = true
		receivedCfg = cfg
		mu.Unlock()
	})

	newContent := `
schemas:
  dir: "other"
logging:
  format: "console"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("OnChange callback was not called")
	}
	if receivedCfg == nil {
		t.Fatal("received nil config in callback")
	}
	if receivedCfg.Logging.Format != "console" {
		t.Errorf("callback received Logging.Format = %s, want console", receivedCfg.Logging.Format)
	}
	if receivedCfg.Schemas.Dir != "other" {
		t.Errorf("callback received Schemas.Dir = %s, want other", receivedCfg.Schemas.Dir)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	invalidContent := `
logging:
  format: "xml"
`
	if err := os.WriteFile(path, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}

	cfg := h.Get()
	if cfg.Logging.Format != "json" || cfg.Schemas.Dir != "defs" {
		t.Errorf("should keep old config, got %+v", cfg)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan *config.Config, 4)
	h.OnChange(func(cfg *config.Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("write other file: %v", err)
	}

	newContent := `
schemas:
  dir: "defs"
logging:
  level: "warn"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Logging.Level == "warn" {
				if got := h.Get().Logging.Level; got != "warn" {
					t.Errorf("after file watch, Logging.Level = %s, want warn", got)
				}
				return
			}
		case <-deadline:
			t.Fatal("file watcher did not trigger reload")
		}
	}
}

func TestHolder_StopTwice(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if cfg := h.Get(); cfg == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
		go func() {
			defer wg.Done()
			h.OnChange(func(*config.Config) {})
		}()
	}

	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	assertContains(t, "ReloadableFields", config.ReloadableFields(),
		"logging.level", "logging.format", "metrics.textfile")
}

func TestNonReloadableFields(t *testing.T) {
	assertContains(t, "NonReloadableFields", config.NonReloadableFields(),
		"schemas.dir", "metrics.enabled", "metrics.namespace")
}

// Helpers

func assertContains(t *testing.T, what string, fields []string, expected ...string) {
	t.Helper()
	if len(fields) == 0 {
		t.Errorf("%s returned empty", what)
	}
	for _, e := range expected {
		found := false
		for _, f := range fields {
			if f == e {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s not in %s", e, what)
		}
	}
}

func validConfig() string {
	return `
schemas:
  dir: "defs"

logging:
  level: "info"
  format: "json"
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
