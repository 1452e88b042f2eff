package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr   = ":8080"
	defaultDriver     = "sqlite"
	defaultDSN        = "file::memory:?cache=shared"
	defaultReportTime = "09:00"
)

// Config keeps runtime settings for the dashboard service.
type Config struct {
	HTTPAddr string         `yaml:"http_addr"`
	Timezone string         `yaml:"timezone"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	Report   ReportConfig   `yaml:"report"`
}

// DatabaseConfig selects the gorm dialect and DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
	// Seed inserts the demo tasks into an empty store.
	Seed bool `yaml:"seed"`
}

// TelegramConfig enables the bot when Token is set.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// ReportConfig schedules the periodic summary. A positive IntervalHours wins over Time.
type ReportConfig struct {
	Time          string `yaml:"time"`
	IntervalHours int    `yaml:"interval_hours"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPAddr: defaultHTTPAddr,
		Timezone: "Local",
		Database: DatabaseConfig{
			Driver: defaultDriver,
			URL:    defaultDSN,
			Seed:   true,
		},
		Report: ReportConfig{
			Time: defaultReportTime,
		},
	}
}

// Load reads the optional CONFIG_FILE and then applies environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := env("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := env("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := env("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := env("SEED_DATA"); v != "" {
		if seed, err := strconv.ParseBool(v); err == nil {
			cfg.Database.Seed = seed
		}
	}
	if v := env("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := env("REPORT_TIME"); v != "" {
		cfg.Report.Time = v
	}
	if v := env("REPORT_INTERVAL_HOURS"); v != "" {
		cfg.Report.IntervalHours = parseHours(v)
	}
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("database.driver must be sqlite or mysql, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "mysql" && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for mysql")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Report.IntervalHours < 0 {
		return fmt.Errorf("report.interval_hours must not be negative")
	}
	if c.Report.IntervalHours == 0 && c.Report.Time != "" {
		if _, err := time.Parse("15:04", c.Report.Time); err != nil {
			return fmt.Errorf("report.time must be HH:MM, got %q", c.Report.Time)
		}
	}
	return nil
}

// Location resolves Timezone; empty and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ReportInterval returns the report period, or 0 when reports run daily at Time.
func (c Config) ReportInterval() time.Duration {
	return time.Duration(c.Report.IntervalHours) * time.Hour
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseHours(raw string) int {
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
