package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagetree.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB != DefaultDB || cfg.Debounce != DefaultDebounce || cfg.LogLevel != "info" || cfg.HTTPAddr != "" {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
db: /var/lib/pagetree/ws.db
http_addr: ":9090"
debounce: 250ms
log_level: debug
read_only: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		DB:       "/var/lib/pagetree/ws.db",
		HTTPAddr: ":9090",
		Debounce: 250 * time.Millisecond,
		LogLevel: "debug",
		ReadOnly: true,
	}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "db: from-file.db\ndebounce: 1s\n")
	t.Setenv("PAGETREE_DB", "from-env.db")
	t.Setenv("PAGETREE_DEBOUNCE", "2s")
	t.Setenv("PAGETREE_READ_ONLY", "true")
	t.Setenv("PAGETREE_HTTP_ADDR", "127.0.0.1:8080")
	t.Setenv("PAGETREE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB != "from-env.db" || cfg.Debounce != 2*time.Second || !cfg.ReadOnly ||
		cfg.HTTPAddr != "127.0.0.1:8080" || cfg.LogLevel != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		env  map[string]string
		want string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			want: "read",
		},
		{
			name: "bad yaml",
			path: func(t *testing.T) string { return writeFile(t, "db: [unclosed") },
			want: "parse",
		},
		{
			name: "bad debounce env",
			path: func(*testing.T) string { return "" },
			env:  map[string]string{"PAGETREE_DEBOUNCE": "soon"},
			want: "PAGETREE_DEBOUNCE",
		},
		{
			name: "bad read-only env",
			path: func(*testing.T) string { return "" },
			env:  map[string]string{"PAGETREE_READ_ONLY": "maybe"},
			want: "PAGETREE_READ_ONLY",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path(t))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }, false},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"memory without db", func(c *Config) { c.Memory, c.DB = true, "" }, true},
		{"no db", func(c *Config) { c.DB = "" }, false},
		{"fixture needs memory", func(c *Config) { c.Fixture = "ws.yaml" }, false},
		{"fixture with memory", func(c *Config) { c.Fixture, c.Memory = "ws.yaml", true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("ParseLevel(trace) should fail")
	}
}
