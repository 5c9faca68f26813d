package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// configDir returns a directory holding content as metafmt.yaml.
func configDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
	return dir
}

func TestLoad_AllFields(t *testing.T) {
	cfg, err := Load(configDir(t, `global:
  institute: mohc
  project: CMIP5
  site: crem
  centre: hadley

database:
  driver: postgres
  host: crem-db
  port: 5433
  username: reader
  database: crem
  sslmode: require
  type: data_source

output:
  format: json
  stable_ids: true
  metrics_file: /var/lib/node_exporter/metafmt.prom
`))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "mohc", cfg.Global.Institute)
	assert.Equal(t, "CMIP5", cfg.Global.Project)
	assert.Equal(t, "crem", cfg.SiteName())
	assert.Equal(t, "hadley", cfg.Global.Extra["centre"])
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "data_source", cfg.Database.Options["type"])
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.StableIDs)
	assert.Equal(t, "/var/lib/node_exporter/metafmt.prom", cfg.Output.MetricsFile)

	globals := cfg.Global.Globals()
	assert.Equal(t, "mohc", globals["institute"])
	assert.Equal(t, "CMIP5", globals["project"])
	assert.Equal(t, "hadley", globals["centre"])

	env := cfg.Database.Environment()
	assert.Equal(t, "crem-db", env["host"])
	assert.Equal(t, "5433", env["port"])
	assert.Equal(t, "data_source", env["type"])
	assert.NotContains(t, env, "csv_dir")
}

func TestLoad_OnlyInstitute(t *testing.T) {
	cfg, err := Load(configDir(t, "global:\n  institute: mohc\n"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Database.Host)
	assert.Equal(t, 0, cfg.Database.Port)
	assert.Equal(t, DefaultSite, cfg.SiteName())
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "got %v", err)
	assert.Nil(t, cfg)

	cfg, err = LoadOrDefault(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, FormatConfig{}, *cfg)
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(configDir(t, ""))
	require.NoError(t, err)
	assert.Equal(t, FormatConfig{}, *cfg)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		mention string
	}{
		{"not yaml", "{{invalid", ""},
		{"unknown driver", "database:\n  driver: mysql\n", "mysql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(configDir(t, tt.content))
			assert.ErrorIs(t, err, metafmt.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.mention)
			assert.Nil(t, cfg)
		})
	}
}
