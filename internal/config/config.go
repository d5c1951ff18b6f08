package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"spot-analytics/internal/model"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	ESIOS   ESIOSConfig   `yaml:"esios"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type ESIOSConfig struct {
	APIKey string `yaml:"api_key" validate:"required"`
	// Optional: read the key from a file instead (relative to the config file).
	// api_key wins when both are set.
	APIKeyFile   string        `yaml:"api_key_file"`
	BaseURL      string        `yaml:"base_url" validate:"required,url"`
	IndicatorIDs []int         `yaml:"indicator_ids" validate:"required,min=1,dive,gt=0"`
	GeoID        int           `yaml:"geo_id" validate:"gt=0"`
	Timezone     string        `yaml:"timezone" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
}

type FetchConfig struct {
	StartDate string `yaml:"start_date" validate:"required"`
	// EndDate defaults to today when empty.
	EndDate     string        `yaml:"end_date"`
	ChunkDays   int           `yaml:"chunk_days" validate:"min=1,max=30"`
	MaxAttempts int           `yaml:"max_attempts" validate:"min=1,max=10"`
	BackoffBase time.Duration `yaml:"backoff_base" validate:"gte=0"`
	Concurrency int           `yaml:"concurrency" validate:"min=1,max=16"`
}

type StorageConfig struct {
	OutputPath string `yaml:"output_path" validate:"required"`
	ReportPath string `yaml:"report_path"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" validate:"min=1,max=65535"`
	RefreshCron string   `yaml:"refresh_cron"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns a configuration with every optional field filled in.
// The API key is left empty; it must come from the file or ESIOS_API_KEY.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path, applies defaults and environment overrides, then validates.
// An empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	var c Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if c.ESIOS.APIKey == "" && c.ESIOS.APIKeyFile != "" {
		keyPath := c.ESIOS.APIKeyFile
		if !filepath.IsAbs(keyPath) && path != "" {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), keyPath)
			if _, err := os.Stat(cand); err == nil {
				keyPath = cand
			}
		}
		raw, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read api key file: %w", err)
		}
		c.ESIOS.APIKey = strings.TrimSpace(string(raw))
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ESIOS_API_KEY"); v != "" {
		c.ESIOS.APIKey = v
	}
	if v := os.Getenv("ESIOS_BASE_URL"); v != "" {
		c.ESIOS.BaseURL = v
	}
	if v := os.Getenv("SPOT_OUTPUT_PATH"); v != "" {
		c.Storage.OutputPath = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		c.Server.RefreshCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("API_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ESIOS.BaseURL == "" {
		c.ESIOS.BaseURL = "https://api.esios.ree.es"
	}
	if len(c.ESIOS.IndicatorIDs) == 0 {
		c.ESIOS.IndicatorIDs = []int{600}
	}
	if c.ESIOS.GeoID == 0 {
		c.ESIOS.GeoID = 3
	}
	if c.ESIOS.Timezone == "" {
		c.ESIOS.Timezone = "Europe/Madrid"
	}
	if c.ESIOS.Timeout == 0 {
		c.ESIOS.Timeout = 30 * time.Second
	}
	if c.Fetch.StartDate == "" {
		c.Fetch.StartDate = "2015-01-01"
	}
	if c.Fetch.ChunkDays == 0 {
		c.Fetch.ChunkDays = 30
	}
	if c.Fetch.MaxAttempts == 0 {
		c.Fetch.MaxAttempts = 3
	}
	if c.Fetch.BackoffBase == 0 {
		c.Fetch.BackoffBase = time.Second
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = 1
	}
	if c.Storage.OutputPath == "" {
		c.Storage.OutputPath = "data/precios_spot.csv"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.ESIOS.APIKey) == "" {
		return errors.New("esios.api_key is required (or set ESIOS_API_KEY)")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	if _, err := time.LoadLocation(c.ESIOS.Timezone); err != nil {
		return fmt.Errorf("esios.timezone: %w", err)
	}
	start, err := c.StartDate()
	if err != nil {
		return fmt.Errorf("fetch.start_date: %w", err)
	}
	if c.Fetch.EndDate != "" {
		end, err := model.ParseDate(c.Fetch.EndDate)
		if err != nil {
			return fmt.Errorf("fetch.end_date: %w", err)
		}
		if end.Before(start) {
			return errors.New("fetch.end_date must not be before fetch.start_date")
		}
	}
	if c.Server.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.Server.RefreshCron); err != nil {
			return fmt.Errorf("server.refresh_cron: %w", err)
		}
	}
	return nil
}

// Location returns the configured civil time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ESIOS.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) StartDate() (time.Time, error) {
	return model.ParseDate(c.Fetch.StartDate)
}

// EndDate returns fetch.end_date, or the current date in the configured zone.
func (c *Config) EndDate(now time.Time) (time.Time, error) {
	if c.Fetch.EndDate == "" {
		return model.DateOf(now.In(c.Location())), nil
	}
	return model.ParseDate(c.Fetch.EndDate)
}

// PrimaryIndicator is the series served by the API and written to OutputPath.
func (c *Config) PrimaryIndicator() int {
	if len(c.ESIOS.IndicatorIDs) == 0 {
		return 600
	}
	return c.ESIOS.IndicatorIDs[0]
}

// OutputPathFor returns the store path of an indicator. The primary indicator uses
// OutputPath; others get the id appended before the extension.
func (c *Config) OutputPathFor(id int) string {
	if id == c.PrimaryIndicator() {
		return c.Storage.OutputPath
	}
	ext := filepath.Ext(c.Storage.OutputPath)
	base := strings.TrimSuffix(c.Storage.OutputPath, ext)
	return fmt.Sprintf("%s_%d%s", base, id, ext)
}
