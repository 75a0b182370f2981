package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/reconcile"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Serve.Port != DefaultPort {
		t.Errorf("Serve.Port = %d, want %d", cfg.Serve.Port, DefaultPort)
	}
	if cfg.Serve.Host != DefaultHost {
		t.Errorf("Serve.Host = %q, want %q", cfg.Serve.Host, DefaultHost)
	}
	if cfg.Render.Output != DefaultOutput {
		t.Errorf("Render.Output = %q, want %q", cfg.Render.Output, DefaultOutput)
	}
	if cfg.Profile() != reconcile.ProfileFull {
		t.Errorf("Profile() = %v, want full", cfg.Profile())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Fatalf("Load() error = %v, want %s", err, errors.CodeConfigNotFound)
	}

	configJSON := `{
  "name": "counter",
  "template": "counter.html",
  "serve": {
    "port": 8080,
    "host": "0.0.0.0"
  },
  "reconcile": {
    "profile": "nested"
  }
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Name != "counter" {
		t.Errorf("Name = %q, want %q", cfg.Name, "counter")
	}
	if cfg.Serve.Port != 8080 {
		t.Errorf("Serve.Port = %d, want 8080", cfg.Serve.Port)
	}
	if cfg.Serve.Host != "0.0.0.0" {
		t.Errorf("Serve.Host = %q, want %q", cfg.Serve.Host, "0.0.0.0")
	}
	if cfg.Profile() != reconcile.ProfileNested {
		t.Errorf("Profile() = %v, want nested", cfg.Profile())
	}
	// Unset fields keep their defaults.
	if diff := cmp.Diff([]string{"{{", "}}"}, cfg.Compiler.Delims); diff != "" {
		t.Errorf("Compiler.Delims mismatch (-want +got):\n%s", diff)
	}
	if cfg.TemplatePath() != filepath.Join(tmpDir, "counter.html") {
		t.Errorf("TemplatePath() = %q", cfg.TemplatePath())
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `name: todo
template: /abs/todo.html
compiler:
  delims: ["[[", "]]"]
log:
  level: debug
  format: json
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"[[", "]]"}, cfg.Compiler.Delims); diff != "" {
		t.Errorf("Compiler.Delims mismatch (-want +got):\n%s", diff)
	}
	if cfg.TemplatePath() != "/abs/todo.html" {
		t.Errorf("TemplatePath() = %q, want absolute path unchanged", cfg.TemplatePath())
	}
	if cfg.Compiler.EventPrefix != "@" {
		t.Errorf("EventPrefix = %q, want default", cfg.Compiler.EventPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("LoadFile() error = %v, want %s", err, errors.CodeConfigInvalid)
	}

	_, err = LoadFile(filepath.Join(tmpDir, "missing.json"))
	if !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Errorf("LoadFile() error = %v, want %s", err, errors.CodeConfigNotFound)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{ConfigFileName, YAMLFileName} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Name = "saved"
			cfg.Serve.Port = 9000

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if loaded.Name != "saved" || loaded.Serve.Port != 9000 {
				t.Errorf("loaded = %+v", loaded)
			}
			if loaded.Dir() != tmpDir {
				t.Errorf("Dir() = %q, want %q", loaded.Dir(), tmpDir)
			}
		})
	}

	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port", func(c *Config) { c.Serve.Port = 70000 }, "Port"},
		{"delims", func(c *Config) { c.Compiler.Delims = []string{"{{"} }, "delims"},
		{"empty delim", func(c *Config) { c.Compiler.Delims = []string{"", "}}"} }, "delims"},
		{"prefixes", func(c *Config) { c.Compiler.DynamicPrefix = "@" }, "dynamicPrefix"},
		{"profile", func(c *Config) { c.Reconcile.Profile = "deep" }, "profile"},
		{"level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
			if !errors.HasCode(err, errors.CodeConfigInvalid) {
				t.Errorf("Validate() error code = %v, want %s", err, errors.CodeConfigInvalid)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("n", 1))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON record, got %s", out)
	}
}

func TestServeAddress(t *testing.T) {
	cfg := New()
	cfg.Serve.Host = "127.0.0.1"
	cfg.Serve.Port = 4000
	if got := cfg.ServeAddress(); got != "127.0.0.1:4000" {
		t.Errorf("ServeAddress() = %q", got)
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLFileName), []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	want, _ := filepath.Abs(tmpDir)
	if root != want {
		t.Errorf("FindProjectRoot() = %q, want %q", root, want)
	}
	if !Exists(tmpDir) || Exists(nested) {
		t.Error("Exists() reports the wrong directories")
	}
}

func TestLoadData(t *testing.T) {
	tmpDir := t.TempDir()

	jsonPath := filepath.Join(tmpDir, "data.json")
	if err := os.WriteFile(jsonPath, []byte(`{"count": 2, "items": ["a"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadData(jsonPath)
	if err != nil {
		t.Fatalf("LoadData() error = %v", err)
	}
	want := map[string]any{"count": float64(2), "items": []any{"a"}}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("LoadData() mismatch (-want +got):\n%s", diff)
	}

	yamlPath := filepath.Join(tmpDir, "data.yaml")
	if err := os.WriteFile(yamlPath, []byte("title: hi\nok: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err = LoadData(yamlPath)
	if err != nil {
		t.Fatalf("LoadData() error = %v", err)
	}
	if diff := cmp.Diff(map[string]any{"title": "hi", "ok": true}, data); diff != "" {
		t.Errorf("LoadData() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseData([]byte("[1, 2]"), false); !errors.HasCode(err, errors.CodeDataFile) {
		t.Errorf("ParseData(array) error = %v, want %s", err, errors.CodeDataFile)
	}
	if _, err := LoadData(filepath.Join(tmpDir, "none.json")); !errors.HasCode(err, errors.CodeDataFile) {
		t.Errorf("LoadData(missing) error = %v, want %s", err, errors.CodeDataFile)
	}
}
