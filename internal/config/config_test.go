package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "default configuration with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, 0.16, cfg.Summary.LowerQuantile)
				assert.Equal(t, 0.84, cfg.Summary.UpperQuantile)
				assert.Equal(t, "skip", cfg.Summary.ErrorPolicy)
				assert.Equal(t, 1, cfg.Summary.Workers)
				assert.Equal(t, 67.74, cfg.Cosmology.H0)
				assert.Equal(t, 0.3075, cfg.Cosmology.Om0)
				assert.Equal(t, 10000, cfg.Cosmology.GridPoints)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "file overrides defaults",
			file: `
summary:
  error_policy: halt
  workers: 4
cosmology:
  interpolation: fritsch-butland
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "halt", cfg.Summary.ErrorPolicy)
				assert.Equal(t, 4, cfg.Summary.Workers)
				assert.Equal(t, "fritsch-butland", cfg.Cosmology.Interpolation)
				// untouched fields keep their defaults
				assert.Equal(t, 0.16, cfg.Summary.LowerQuantile)
			},
		},
		{
			name: "environment overrides file",
			file: `
logging:
  level: warn
`,
			env: map[string]string{
				"GWCAT_LOGGING_LEVEL":          "debug",
				"GWCAT_SUMMARY_UPPER_QUANTILE": "0.95",
				"GWCAT_SUMMARY_LOWER_QUANTILE": "0.05",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 0.05, cfg.Summary.LowerQuantile)
				assert.Equal(t, 0.95, cfg.Summary.UpperQuantile)
			},
		},
		{
			name:    "unknown file key",
			file:    "summary:\n  quantile: 0.5\n",
			wantErr: true,
		},
		{
			name:    "invalid env value",
			env:     map[string]string{"GWCAT_SUMMARY_WORKERS": "many"},
			wantErr: true,
		},
		{
			name:    "validation failure",
			env:     map[string]string{"GWCAT_SUMMARY_ERROR_POLICY": "retry"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, "gwcatalog.yaml", tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{
			name:    "reversed quantiles",
			modify:  func(c *Config) { c.Summary.LowerQuantile, c.Summary.UpperQuantile = 0.84, 0.16 },
			wantErr: "upper_quantile",
		},
		{
			name:    "quantile out of range",
			modify:  func(c *Config) { c.Summary.LowerQuantile = 0 },
			wantErr: "lower_quantile",
		},
		{
			name:    "coarse grid",
			modify:  func(c *Config) { c.Cosmology.GridPoints = 100 },
			wantErr: "grid_points",
		},
		{
			name:    "unknown interpolation",
			modify:  func(c *Config) { c.Cosmology.Interpolation = "cubic" },
			wantErr: "interpolation",
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.Summary.Workers = 0 },
			wantErr: "workers",
		},
		{
			name: "file output needs a path",
			modify: func(c *Config) {
				c.Logging.Output = "file"
				c.Logging.FilePath = ""
			},
			wantErr: "file_path",
		},
		{
			name:    "unknown trace exporter",
			modify:  func(c *Config) { c.Telemetry.TraceExporter = "zipkin" },
			wantErr: "trace_exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "gwcatalog.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
