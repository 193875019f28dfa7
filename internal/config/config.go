// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// Timezone anchors all day/week boundary math for quotas and
	// availability, regardless of where the server process runs.
	Timezone         string `yaml:"timezone"`
	MaxPerDay        int    `yaml:"max_per_day"`
	MaxPerWeek       int    `yaml:"max_per_week"`
	DefaultOpenTime  string `yaml:"default_open_time"`
	DefaultCloseTime string `yaml:"default_close_time"`
}

type NotificationsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	SESRegion       string        `yaml:"ses_region"`
	Sender          string        `yaml:"sender"`
	BatchSize       int           `yaml:"batch_size"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	AccessKeyID     string        `yaml:"-"` // Loaded from environment
	SecretAccessKey string        `yaml:"-"` // Loaded from environment
}

type WeatherConfig struct {
	Enabled       bool    `yaml:"enabled"`
	BaseURL       string  `yaml:"base_url"`
	RainThreshold float64 `yaml:"rain_threshold"`
	SweepCron     string  `yaml:"sweep_cron"`
}

type CognitoConfig struct {
	PoolID   string `yaml:"pool_id"`
	ClientID string `yaml:"client_id"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database      DatabaseConfig      `yaml:"database"`
	Booking       BookingConfig       `yaml:"booking"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Weather       WeatherConfig       `yaml:"weather"`
	Cognito       CognitoConfig       `yaml:"cognito"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Notifications.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Notifications.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	cfg.ApplyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Asia/Bangkok"
	}
	if c.Booking.MaxPerDay == 0 {
		c.Booking.MaxPerDay = 2
	}
	if c.Booking.MaxPerWeek == 0 {
		c.Booking.MaxPerWeek = 7
	}
	if c.Booking.DefaultOpenTime == "" {
		c.Booking.DefaultOpenTime = "08:00"
	}
	if c.Booking.DefaultCloseTime == "" {
		c.Booking.DefaultCloseTime = "22:00"
	}
	if c.Notifications.BatchSize == 0 {
		c.Notifications.BatchSize = 50
	}
	if c.Notifications.SweepInterval == 0 {
		c.Notifications.SweepInterval = time.Minute
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Weather.RainThreshold == 0 {
		c.Weather.RainThreshold = 70
	}
	if c.Weather.SweepCron == "" {
		// Evening sweep so alerts for tomorrow go out before close.
		c.Weather.SweepCron = "0 17 * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", c.Booking.Timezone, err)
	}
	if c.Booking.MaxPerDay < 1 {
		return fmt.Errorf("booking max_per_day must be at least 1")
	}
	if c.Booking.MaxPerWeek < c.Booking.MaxPerDay {
		return fmt.Errorf("booking max_per_week must be at least max_per_day")
	}

	if c.Notifications.Enabled {
		if c.Notifications.SESRegion == "" {
			return fmt.Errorf("notifications ses_region is required when notifications are enabled")
		}
		if c.Notifications.Sender == "" {
			return fmt.Errorf("notifications sender is required when notifications are enabled")
		}
	}

	return nil
}
