// Package config holds the pipeline configuration. Every stage receives the
// full Config explicitly at construction; nothing reads configuration at run
// time.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete pipeline configuration. Values come from built-in
// defaults, an optional config.yaml, and VV_* environment variables, in
// increasing order of precedence.
type Config struct {
	Store   StoreConfig   `yaml:"store" envconfig:"STORE"`
	Buckets BucketsConfig `yaml:"buckets" envconfig:"BUCKETS"`
	Scope   ScopeConfig   `yaml:"scope" envconfig:"SCOPE"`
	API     APIConfig     `yaml:"api" envconfig:"API"`
	DVF     DVFConfig     `yaml:"dvf" envconfig:"DVF"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// StoreConfig contains the object store connection parameters.
type StoreConfig struct {
	Endpoint  string `yaml:"endpoint" envconfig:"ENDPOINT"`
	AccessKey string `yaml:"access_key" envconfig:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"SECRET_KEY"`
	Secure    bool   `yaml:"secure" envconfig:"SECURE"`
	Region    string `yaml:"region" envconfig:"REGION"`
}

// BucketsConfig names the bucket of each medallion layer.
type BucketsConfig struct {
	Bronze string `yaml:"bronze" envconfig:"BRONZE"`
	Silver string `yaml:"silver" envconfig:"SILVER"`
	Gold   string `yaml:"gold" envconfig:"GOLD"`
}

// ScopeConfig bounds the data perimeter: departments and observation window.
type ScopeConfig struct {
	Departements []string `yaml:"departements" envconfig:"DEPARTEMENTS"`
	DateStart    string   `yaml:"date_start" envconfig:"DATE_START"`
	DateEnd      string   `yaml:"date_end" envconfig:"DATE_END"`
	Years        []int    `yaml:"years" envconfig:"YEARS"`
}

// APIConfig configures the ADEME data-fair client.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL"`
	Dataset           string        `yaml:"dataset" envconfig:"DATASET"`
	PageSize          int           `yaml:"page_size" envconfig:"PAGE_SIZE"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// DVFConfig locates the raw DVF exports on the local filesystem.
type DVFConfig struct {
	SourceDir string `yaml:"source_dir" envconfig:"SOURCE_DIR"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// defaults returns the built-in configuration: the local MinIO sandbox, the
// three study departments, and the 2020 to mid-2021 observation window. The
// API rate stays below the published 100 requests per 14 seconds cap.
func defaults() Config {
	return Config{
		Store: StoreConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "admin",
			SecretKey: "password123",
			Secure:    false,
			Region:    "us-east-1",
		},
		Buckets: BucketsConfig{
			Bronze: "datalake-bronze",
			Silver: "datalake-silver",
			Gold:   "datalake-gold",
		},
		Scope: ScopeConfig{
			Departements: []string{"92", "59", "34"},
			DateStart:    "2020-01-01",
			DateEnd:      "2021-06-30",
			Years:        []int{2020, 2021},
		},
		API: APIConfig{
			BaseURL:           "https://data.ademe.fr/data-fair/api/v1/datasets",
			Dataset:           "dpe-france",
			PageSize:          10000,
			RequestsPerSecond: 7.5,
			MaxRetries:        6,
			Timeout:           60 * time.Second,
		},
		DVF: DVFConfig{
			SourceDir: "data/raw/dvf",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// VV_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit config file path; path may be empty.
func LoadFrom(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// The environment wins over the file; only variables that are actually
	// set touch the config.
	if err := envconfig.Process("VV", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the invariants every stage relies on.
func (c *Config) Validate() error {
	if c.Store.Endpoint == "" {
		return fmt.Errorf("store endpoint must not be empty")
	}
	if c.Buckets.Bronze == "" || c.Buckets.Silver == "" || c.Buckets.Gold == "" {
		return fmt.Errorf("all three layer buckets must be named")
	}
	if len(c.Scope.Departements) == 0 {
		return fmt.Errorf("at least one department must be configured")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api page size must be positive, got %d", c.API.PageSize)
	}
	if c.API.RequestsPerSecond <= 0 {
		return fmt.Errorf("api rate must be positive, got %f", c.API.RequestsPerSecond)
	}
	if _, _, err := c.Scope.DateRange(); err != nil {
		return err
	}
	return nil
}

// DateRange parses the scope window.
func (s ScopeConfig) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", s.DateStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid scope date_start %q: %w", s.DateStart, err)
	}
	end, err := time.Parse("2006-01-02", s.DateEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid scope date_end %q: %w", s.DateEnd, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("scope date_end %s before date_start %s", s.DateEnd, s.DateStart)
	}
	return start, end, nil
}

// InScope reports whether a department belongs to the configured perimeter.
func (s ScopeConfig) InScope(departement string) bool {
	for _, d := range s.Departements {
		if d == departement {
			return true
		}
	}
	return false
}

func findConfigFile() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
