package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:9000", cfg.Store.Endpoint)
	assert.Equal(t, "datalake-bronze", cfg.Buckets.Bronze)
	assert.Equal(t, "datalake-silver", cfg.Buckets.Silver)
	assert.Equal(t, "datalake-gold", cfg.Buckets.Gold)
	assert.Equal(t, []string{"92", "59", "34"}, cfg.Scope.Departements)
	assert.Equal(t, "2020-01-01", cfg.Scope.DateStart)
	assert.Equal(t, "2021-06-30", cfg.Scope.DateEnd)
	assert.Equal(t, []int{2020, 2021}, cfg.Scope.Years)
	assert.Equal(t, 10000, cfg.API.PageSize)
	assert.Equal(t, 7.5, cfg.API.RequestsPerSecond)
	assert.Equal(t, 6, cfg.API.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("VV_STORE_ENDPOINT", "minio.internal:9000")
	t.Setenv("VV_SCOPE_DEPARTEMENTS", "75,13")
	t.Setenv("VV_API_PAGE_SIZE", "500")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "minio.internal:9000", cfg.Store.Endpoint)
	assert.Equal(t, []string{"75", "13"}, cfg.Scope.Departements)
	assert.Equal(t, 500, cfg.API.PageSize)
}

func TestLoadFromFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  endpoint: from-file:9000
buckets:
  bronze: file-bronze
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// The environment wins over the file.
	t.Setenv("VV_STORE_ENDPOINT", "from-env:9000")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env:9000", cfg.Store.Endpoint)
	assert.Equal(t, "file-bronze", cfg.Buckets.Bronze)
	assert.Equal(t, "datalake-silver", cfg.Buckets.Silver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty endpoint",
			mutate:  func(c *Config) { c.Store.Endpoint = "" },
			wantErr: "endpoint",
		},
		{
			name:    "missing bucket",
			mutate:  func(c *Config) { c.Buckets.Silver = "" },
			wantErr: "bucket",
		},
		{
			name:    "no departments",
			mutate:  func(c *Config) { c.Scope.Departements = nil },
			wantErr: "department",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.API.PageSize = 0 },
			wantErr: "page size",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.API.RequestsPerSecond = -1 },
			wantErr: "rate",
		},
		{
			name:    "inverted date range",
			mutate:  func(c *Config) { c.Scope.DateStart, c.Scope.DateEnd = "2021-06-30", "2020-01-01" },
			wantErr: "before",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom("")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestScopeInScope(t *testing.T) {
	scope := ScopeConfig{Departements: []string{"92", "59"}}

	assert.True(t, scope.InScope("92"))
	assert.True(t, scope.InScope("59"))
	assert.False(t, scope.InScope("34"))
	assert.False(t, scope.InScope(""))
}

func TestScopeDateRange(t *testing.T) {
	scope := ScopeConfig{DateStart: "2020-01-01", DateEnd: "2021-06-30"}

	start, end, err := scope.DateRange()
	require.NoError(t, err)
	assert.Equal(t, 2020, start.Year())
	assert.Equal(t, time.June, end.Month())
}
