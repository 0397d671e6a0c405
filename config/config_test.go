package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/structure/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
schemas:
  dir: "defs"
  debounce: 250ms

logging:
  level: "debug"
  format: "console"

metrics:
  enabled: true
  namespace: "shop"
  textfile: "/tmp/structure.prom"
`

	cfg := writeAndLoad(t, content)

	if cfg.Schemas.Dir != "defs" {
		t.Errorf("Schemas.Dir = %s, want defs", cfg.Schemas.Dir)
	}
	if cfg.Schemas.Debounce != 250*time.Millisecond {
		t.Errorf("Schemas.Debounce = %v, want 250ms", cfg.Schemas.Debounce)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %s, want console", cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "shop" {
		t.Errorf("Metrics = %+v, want enabled in namespace shop", cfg.Metrics)
	}
	if cfg.Metrics.Textfile != "/tmp/structure.prom" {
		t.Errorf("Metrics.Textfile = %s", cfg.Metrics.Textfile)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "schemas: {}\n")

	if cfg.Schemas.Dir != "schemas" {
		t.Errorf("default Schemas.Dir = %s, want schemas", cfg.Schemas.Dir)
	}
	if cfg.Schemas.Debounce != 100*time.Millisecond {
		t.Errorf("default Schemas.Debounce = %v, want 100ms", cfg.Schemas.Debounce)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("default Logging.Format = %s, want json", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
	if cfg.Metrics.Namespace != "structure" {
		t.Errorf("default Metrics.Namespace = %s, want structure", cfg.Metrics.Namespace)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SCHEMA_ROOT", "/srv/schemas")

	cfg := writeAndLoad(t, `
schemas:
  dir: "${TEST_SCHEMA_ROOT}/shop"
`)

	if cfg.Schemas.Dir != "/srv/schemas/shop" {
		t.Errorf("Schemas.Dir = %s, want /srv/schemas/shop", cfg.Schemas.Dir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STRUCTURE_SCHEMAS_DIR", "/env/schemas")
	t.Setenv("STRUCTURE_SCHEMAS_DEBOUNCE", "1s")
	t.Setenv("STRUCTURE_LOG_LEVEL", "warn")
	t.Setenv("STRUCTURE_LOG_FORMAT", "console")
	t.Setenv("STRUCTURE_METRICS_ENABLED", "1")
	t.Setenv("STRUCTURE_METRICS_NAMESPACE", "envns")
	t.Setenv("STRUCTURE_METRICS_TEXTFILE", "/env/metrics.prom")

	cfg := writeAndLoad(t, `
schemas:
  dir: "file"
logging:
  level: "debug"
`)

	if cfg.Schemas.Dir != "/env/schemas" {
		t.Errorf("Schemas.Dir = %s, want /env/schemas", cfg.Schemas.Dir)
	}
	if cfg.Schemas.Debounce != time.Second {
		t.Errorf("Schemas.Debounce = %v, want 1s", cfg.Schemas.Debounce)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v, want warn/console", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "envns" || cfg.Metrics.Textfile != "/env/metrics.prom" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_InvalidDuration_Ignored(t *testing.T) {
	t.Setenv("STRUCTURE_SCHEMAS_DEBOUNCE", "soon")

	cfg := writeAndLoad(t, "schemas: {}\n")
	if cfg.Schemas.Debounce != 100*time.Millisecond {
		t.Errorf("Schemas.Debounce = %v, want default 100ms", cfg.Schemas.Debounce)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown log level",
			content: "logging:\n  level: loud\n",
			wantErr: "logging.level",
		},
		{
			name:    "unknown log format",
			content: "logging:\n  format: xml\n",
			wantErr: "logging.format",
		},
		{
			name:    "negative debounce",
			content: "schemas:\n  debounce: -1s\n",
			wantErr: "schemas.debounce",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeAndLoadErr(t, tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := writeAndLoadErr(t, "schemas: [\n")
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STRUCTURE_SCHEMAS_DIR", "/from/env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Schemas.Dir != "/from/env" {
		t.Errorf("Schemas.Dir = %s, want /from/env", cfg.Schemas.Dir)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s, want info", cfg.Logging.Level)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Run("file exists", func(t *testing.T) {
		path := writeConfig(t, "schemas:\n  dir: from-file\n")
		cfg, err := config.LoadWithFallback(path)
		if err != nil {
			t.Fatalf("LoadWithFallback error: %v", err)
		}
		if cfg.Schemas.Dir != "from-file" {
			t.Errorf("Schemas.Dir = %s, want from-file", cfg.Schemas.Dir)
		}
	})

	t.Run("missing file falls back to env", func(t *testing.T) {
		t.Setenv("STRUCTURE_SCHEMAS_DIR", "from-env")
		cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadWithFallback error: %v", err)
		}
		if cfg.Schemas.Dir != "from-env" {
			t.Errorf("Schemas.Dir = %s, want from-env", cfg.Schemas.Dir)
		}
	})

	t.Run("empty path uses defaults", func(t *testing.T) {
		cfg, err := config.LoadWithFallback("")
		if err != nil {
			t.Fatalf("LoadWithFallback error: %v", err)
		}
		if cfg.Schemas.Dir != "schemas" {
			t.Errorf("Schemas.Dir = %s, want schemas", cfg.Schemas.Dir)
		}
	})

	t.Run("invalid env is an error", func(t *testing.T) {
		t.Setenv("STRUCTURE_LOG_FORMAT", "xml")
		if _, err := config.LoadWithFallback(""); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestHasEnvConfig(t *testing.T) {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "STRUCTURE_") {
			t.Skip("environment already carries STRUCTURE_ variables")
		}
	}

	if config.HasEnvConfig() {
		t.Error("HasEnvConfig() = true with no STRUCTURE_ variables")
	}
	t.Setenv("STRUCTURE_LOG_LEVEL", "debug")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig() = false, want true")
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("STRUCTURE_METRICS_ENABLED", tt.value)
			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv error: %v", err)
			}
			if cfg.Metrics.Enabled != tt.want {
				t.Errorf("Metrics.Enabled for %q = %v, want %v", tt.value, cfg.Metrics.Enabled, tt.want)
			}
		})
	}
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	tests := []struct {
		cfg  config.LoggingConfig
		want zerolog.Level
	}{
		{config.LoggingConfig{Level: "debug", Format: "json"}, zerolog.DebugLevel},
		{config.LoggingConfig{Level: "warn", Format: "console"}, zerolog.WarnLevel},
		{config.LoggingConfig{Level: "bogus", Format: "json"}, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := tt.cfg.NewLogger().GetLevel(); got != tt.want {
			t.Errorf("NewLogger(%+v).GetLevel() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	return config.Load(writeConfig(t, content))
}
