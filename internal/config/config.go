package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/reconcile"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "stencil.json"

	// YAMLFileName is the name of the YAML configuration file.
	YAMLFileName = "stencil.yaml"

	// DefaultPort is the default port of the serve command.
	DefaultPort = 3000

	// DefaultHost is the default host of the serve command.
	DefaultHost = "localhost"

	// DefaultOutput is the default snapshot output directory.
	DefaultOutput = "dist"
)

// fileNames lists the configuration files Load looks for, in order.
var fileNames = []string{ConfigFileName, YAMLFileName, "stencil.yml"}

// Config represents a stencil.json or stencil.yaml file.
type Config struct {
	// Name is the project name. It names the instance in logs and metrics.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Template is the path to the template file.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	// Data is the path to a JSON or YAML file with the initial data.
	Data string `json:"data,omitempty" yaml:"data,omitempty"`

	// Compiler contains template compiler settings.
	Compiler CompilerConfig `json:"compiler,omitempty" yaml:"compiler,omitempty"`

	// Reconcile contains reconciler settings.
	Reconcile ReconcileConfig `json:"reconcile,omitempty" yaml:"reconcile,omitempty"`

	// Render contains snapshot rendering settings.
	Render RenderConfig `json:"render,omitempty" yaml:"render,omitempty"`

	// Serve contains settings of the serve command.
	Serve ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// CompilerConfig contains template compiler settings.
type CompilerConfig struct {
	// Delims are the interpolation delimiters (default: ["{{", "}}"]).
	Delims []string `json:"delims,omitempty" yaml:"delims,omitempty"`

	// EventPrefix marks event attributes (default: "@").
	EventPrefix string `json:"eventPrefix,omitempty" yaml:"eventPrefix,omitempty"`

	// DynamicPrefix marks expression attributes (default: ":").
	DynamicPrefix string `json:"dynamicPrefix,omitempty" yaml:"dynamicPrefix,omitempty"`
}

// ReconcileConfig contains reconciler settings.
type ReconcileConfig struct {
	// Profile is the scoring profile for sibling candidates:
	// "default", "full" or "nested".
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// RenderConfig contains snapshot rendering settings.
type RenderConfig struct {
	// Pretty indents the rendered HTML.
	Pretty bool `json:"pretty,omitempty" yaml:"pretty,omitempty"`

	// Indent is the indentation unit of pretty output (default: two spaces).
	Indent string `json:"indent,omitempty" yaml:"indent,omitempty"`

	// Output is the directory snapshots are written to.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Publish is a destination URI (a directory, file:// or s3://).
	Publish string `json:"publish,omitempty" yaml:"publish,omitempty"`
}

// ServeConfig contains settings of the serve command.
type ServeConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Deferred makes state changes wait for an explicit flush.
	Deferred bool `json:"deferred,omitempty" yaml:"deferred,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json (default: text).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Compiler: CompilerConfig{
			Delims:        []string{"{{", "}}"},
			EventPrefix:   "@",
			DynamicPrefix: ":",
		},
		Reconcile: ReconcileConfig{
			Profile: "full",
		},
		Render: RenderConfig{
			Indent: "  ",
			Output: DefaultOutput,
		},
		Serve: ServeConfig{
			Host:    DefaultHost,
			Port:    DefaultPort,
			Metrics: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// stencil.json, then stencil.yaml and stencil.yml.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigNotFound).
		WithDetail("No stencil.json or stencil.yaml found in " + dir).
		WithSuggestion("Create stencil.json or pass --template explicitly")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail(path)
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid " + format(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func format(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as YAML or JSON depending on
// the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if len(c.Compiler.Delims) == 0 {
		c.Compiler.Delims = d.Compiler.Delims
	}
	if c.Compiler.EventPrefix == "" {
		c.Compiler.EventPrefix = d.Compiler.EventPrefix
	}
	if c.Compiler.DynamicPrefix == "" {
		c.Compiler.DynamicPrefix = d.Compiler.DynamicPrefix
	}
	if c.Reconcile.Profile == "" {
		c.Reconcile.Profile = d.Reconcile.Profile
	}
	if c.Render.Indent == "" {
		c.Render.Indent = d.Render.Indent
	}
	if c.Render.Output == "" {
		c.Render.Output = d.Render.Output
	}
	if c.Serve.Host == "" {
		c.Serve.Host = d.Serve.Host
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = d.Serve.Port
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(fmt.Sprintf(format, args...))
	}

	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return invalid("Port must be between 0 and 65535")
	}
	if len(c.Compiler.Delims) != 2 || c.Compiler.Delims[0] == "" || c.Compiler.Delims[1] == "" {
		return invalid("compiler.delims must hold two non-empty strings")
	}
	if c.Compiler.EventPrefix == c.Compiler.DynamicPrefix {
		return invalid("compiler.eventPrefix and compiler.dynamicPrefix must differ")
	}
	if _, err := reconcile.ParseProfile(c.Reconcile.Profile); err != nil {
		return invalid("reconcile.profile: %v", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid("log.level: %v", err)
	}
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Profile returns the configured reconciler profile.
func (c *Config) Profile() reconcile.Profile {
	p, _ := reconcile.ParseProfile(c.Reconcile.Profile)
	return p
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Log.Level))
	return l, err
}

// Logger builds a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ServeAddress returns the listen address of the serve command.
func (c *Config) ServeAddress() string {
	return c.Serve.Host + ":" + strconv.Itoa(c.Serve.Port)
}

// TemplatePath returns the template path resolved against Dir.
func (c *Config) TemplatePath() string {
	return c.resolve(c.Template)
}

// DataPath returns the data file path resolved against Dir.
func (c *Config) DataPath() string {
	return c.resolve(c.Data)
}

// OutputPath returns the snapshot output directory resolved against Dir.
func (c *Config) OutputPath() string {
	return c.resolve(c.Render.Output)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range fileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No stencil.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or one of its parents.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
