package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// GlobalConfig holds attributes shared by every element in the document.
type GlobalConfig struct {
	Institute string            `yaml:"institute"`
	Project   string            `yaml:"project"`
	Site      string            `yaml:"site"`
	Extra     map[string]string `yaml:",inline"`
}

// DatabaseConfig describes the metadata store the site DAOs query.
type DatabaseConfig struct {
	Driver   string            `yaml:"driver"`
	CSVDir   string            `yaml:"csv_dir,omitempty"`
	DSN      string            `yaml:"dsn,omitempty"`
	Host     string            `yaml:"host,omitempty"`
	Port     int               `yaml:"port,omitempty"`
	Username string            `yaml:"username,omitempty"`
	Database string            `yaml:"database,omitempty"`
	SSLMode  string            `yaml:"sslmode,omitempty"`
	Options  map[string]string `yaml:",inline"`
}

// OutputConfig sets defaults for the written document.
type OutputConfig struct {
	Format      string `yaml:"format"`
	StableIDs   bool   `yaml:"stable_ids"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

type FormatConfig struct {
	Global   GlobalConfig   `yaml:"global"`
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
}

const ConfigFileName = metafmt.DefaultConfigFileName

// DefaultSite is used when the configuration names no DAO site.
const DefaultSite = "null"

func Load(dir string) (*FormatConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg FormatConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", metafmt.ErrInvalidConfig, configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads the config from dir, treating a missing file as empty.
func LoadOrDefault(dir string) (*FormatConfig, error) {
	cfg, err := Load(dir)
	if errors.Is(err, ErrConfigNotFound) {
		return &FormatConfig{}, nil
	}
	return cfg, err
}

// Validate checks values that cannot be corrected later in the build.
func (c *FormatConfig) Validate() error {
	switch c.Database.Driver {
	case "", "csv", "postgres":
	default:
		return fmt.Errorf("%w: unknown database driver %q (expected csv or postgres)", metafmt.ErrInvalidConfig, c.Database.Driver)
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("%w: database port %d out of range", metafmt.ErrInvalidConfig, c.Database.Port)
	}
	return nil
}

// SiteName returns the configured DAO site or DefaultSite.
func (c *FormatConfig) SiteName() string {
	if c.Global.Site == "" {
		return DefaultSite
	}
	return c.Global.Site
}

// Globals returns the global attributes as a flat map.
func (g GlobalConfig) Globals() map[string]string {
	m := make(map[string]string, len(g.Extra)+2)
	for k, v := range g.Extra {
		m[k] = v
	}
	if g.Institute != "" {
		m[metafmt.AttrInstitute] = g.Institute
	}
	if g.Project != "" {
		m[metafmt.AttrProject] = g.Project
	}
	return m
}

// Environment returns the database section as DAO environment defaults.
func (d DatabaseConfig) Environment() map[string]string {
	m := make(map[string]string, len(d.Options)+8)
	for k, v := range d.Options {
		m[k] = v
	}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("driver", d.Driver)
	set("csv_dir", d.CSVDir)
	set("dsn", d.DSN)
	set("host", d.Host)
	set("username", d.Username)
	set("database", d.Database)
	set("sslmode", d.SSLMode)
	if d.Port != 0 {
		m["port"] = strconv.Itoa(d.Port)
	}
	return m
}
