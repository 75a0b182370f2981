package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/stencil/internal/config"
	"github.com/vango-dev/stencil/internal/dev"
	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/metrics"
	"gopkg.in/yaml.v3"
)

// globalFlags are shared by every command that loads a project.
type globalFlags struct {
	configPath string
	template   string
	data       string
	sets       []string
	logLevel   string
	logFormat  string
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "Config file (default: stencil.json or stencil.yaml in the project root)")
	pf.StringVarP(&f.template, "template", "t", "", "Template file (overrides config)")
	pf.StringVarP(&f.data, "data", "d", "", "JSON or YAML data file (overrides config)")
	pf.StringArrayVar(&f.sets, "set", nil, "Set a data field, as name=value (value is parsed as YAML)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
}

// project is a loaded configuration with its template and data.
type project struct {
	cfg          *config.Config
	templatePath string
	dataPath     string
	template     string
	data         map[string]any
	logger       *slog.Logger
}

// loadProject reads the configuration and applies flag overrides. Without
// a config file the template flag is required.
func loadProject(f *globalFlags) (*project, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &project{
		cfg:          cfg,
		templatePath: cfg.TemplatePath(),
		dataPath:     cfg.DataPath(),
		logger:       cfg.Logger(os.Stderr),
	}
	if f.template != "" {
		p.templatePath = f.template
	}
	if f.data != "" {
		p.dataPath = f.data
	}
	if p.templatePath == "" {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("no template given").
			WithSuggestion("Pass --template or set \"template\" in stencil.json")
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(p.templatePath), filepath.Ext(p.templatePath))
	}

	src, err := os.ReadFile(p.templatePath)
	if err != nil {
		return nil, errors.New(errors.CodeTemplateParse).WithDetail(p.templatePath).Wrap(err)
	}
	p.template = string(src)

	p.data = make(map[string]any)
	if p.dataPath != "" {
		if p.data, err = config.LoadData(p.dataPath); err != nil {
			return nil, err
		}
	}
	for _, kv := range f.sets {
		name, value, err := parseSet(kv)
		if err != nil {
			return nil, err
		}
		p.data[name] = value
	}
	return p, nil
}

func loadConfig(f *globalFlags) (*config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	cfg, err := config.LoadFromWorkingDir()
	if errors.HasCode(err, errors.CodeConfigNotFound) && f.template != "" {
		return config.New(), nil
	}
	return cfg, err
}

// parseSet splits name=value and decodes value as a YAML scalar, so that
// numbers and booleans keep their type.
func parseSet(kv string) (string, any, error) {
	name, raw, ok := strings.Cut(kv, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, errors.New(errors.CodeDataFile).
			WithDetail(fmt.Sprintf("invalid --set %q", kv)).
			WithSuggestion("Use --set name=value")
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	return name, v, nil
}

// session mounts the project template into a fresh document.
func (p *project) session(m *metrics.Metrics) (*dev.Session, error) {
	return dev.NewSession(dev.SessionOptions{
		Name:     p.cfg.Name,
		Template: p.template,
		Data:     p.data,
		Config:   p.cfg,
		Metrics:  m,
		Logger:   p.logger,
	})
}
