// Package config handles configuration loading for skillchart.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/seenimoa/skillchart/internal/chart"
)

// Config represents the complete application configuration.
type Config struct {
	Chart   ChartConfig   `mapstructure:"chart"   yaml:"chart"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	PDF     PDFConfig     `mapstructure:"pdf"     yaml:"pdf"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ChartConfig holds chart rendering settings.
type ChartConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"` // "numeric_preferred" or "numeric_only"
}

// ParsedMode returns the configured chart mode.
func (c ChartConfig) ParsedMode() (chart.Mode, error) {
	return chart.ParseMode(c.Mode)
}

// StorageConfig holds the progress store location.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // empty: platform default
}

// ReportConfig holds report export settings.
type ReportConfig struct {
	ImageDir  string `mapstructure:"image_dir"  yaml:"image_dir"`  // raster fallbacks, matched by skill id
	Author    string `mapstructure:"author"     yaml:"author"`
	Title     string `mapstructure:"title"      yaml:"title"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// PDFConfig holds HTML→PDF conversion settings.
type PDFConfig struct {
	Engine      string `mapstructure:"engine"      yaml:"engine"` // "", "wkhtmltopdf", "chromium", "none"
	PageSize    string `mapstructure:"page_size"   yaml:"page_size"`
	Orientation string `mapstructure:"orientation" yaml:"orientation"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	CacheTTL    int      `mapstructure:"cache_ttl"    yaml:"cache_ttl"` // seconds, 0 disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.skillchart/config.yaml (home directory)
//  3. /etc/skillchart/config.yaml (system)
//
// Environment variables override config file values.
// Format: SKILLCHART_<SECTION>_<KEY>, e.g., SKILLCHART_CHART_MODE
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".skillchart"))
	v.AddConfigPath("/etc/skillchart")

	bindEnv(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("SKILLCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if _, err := c.Chart.ParsedMode(); err != nil {
		return fmt.Errorf("chart.mode: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q (want text or json)", c.Logging.Format)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port: %d out of range", c.API.Port)
	}
	if c.API.CacheTTL < 0 {
		return fmt.Errorf("api.cache_ttl: must not be negative")
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Chart defaults
	v.SetDefault("chart.mode", chart.NumericPreferred.String())

	// Storage defaults
	v.SetDefault("storage.path", "")

	// Report defaults
	v.SetDefault("report.image_dir", "./images")
	v.SetDefault("report.author", "skillchart")
	v.SetDefault("report.title", "")
	v.SetDefault("report.output_dir", "./reports")

	// PDF defaults
	v.SetDefault("pdf.engine", "")
	v.SetDefault("pdf.page_size", "A4")
	v.SetDefault("pdf.orientation", "portrait")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.cache_ttl", 300) // 5 minutes

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
