package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Validate when a setting is omitted.
const (
	DefaultWorkspace          = "default"
	DefaultRedisURL           = "redis://localhost:6379/0"
	DefaultDeadlineWindowDays = 30
	DefaultTimezone           = "Local"
	DefaultExporterListen     = ":9464"
)

// RosterConfig represents the top-level roster.yml configuration
type RosterConfig struct {
	Version   string           `yaml:"version"`
	Workspace string           `yaml:"workspace,omitempty"` // Redis key namespace
	Redis     *RedisConfig     `yaml:"redis,omitempty"`
	Dashboard *DashboardConfig `yaml:"dashboard,omitempty"`
	Exporter  *ExporterConfig  `yaml:"exporter,omitempty"`
}

// RedisConfig locates the Redis server holding the records
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DashboardConfig tunes the metrics
type DashboardConfig struct {
	DeadlineWindowDays *int   `yaml:"deadline_window_days,omitempty"` // 0 = today only, default = 30
	Timezone           string `yaml:"timezone,omitempty"`             // IANA name or "Local"
}

// ExporterConfig configures the Prometheus endpoint
type ExporterConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

var workspacePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Default returns a validated configuration with every default applied.
func Default() *RosterConfig {
	c := &RosterConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted settings.
func (c *RosterConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Workspace == "" {
		c.Workspace = DefaultWorkspace
	}
	if !workspacePattern.MatchString(c.Workspace) {
		return fmt.Errorf("invalid workspace '%s': use lowercase letters, digits, '-' and '_'", c.Workspace)
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}
	if _, err := redis.ParseURL(c.Redis.URL); err != nil {
		return fmt.Errorf("invalid redis.url: %w", err)
	}

	if c.Dashboard == nil {
		c.Dashboard = &DashboardConfig{}
	}
	if c.Dashboard.DeadlineWindowDays == nil {
		window := DefaultDeadlineWindowDays
		c.Dashboard.DeadlineWindowDays = &window
	}
	if *c.Dashboard.DeadlineWindowDays < 0 {
		return fmt.Errorf("dashboard.deadline_window_days must be >= 0, got %d", *c.Dashboard.DeadlineWindowDays)
	}
	if c.Dashboard.Timezone == "" {
		c.Dashboard.Timezone = DefaultTimezone
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Exporter == nil {
		c.Exporter = &ExporterConfig{}
	}
	if c.Exporter.Listen == "" {
		c.Exporter.Listen = DefaultExporterListen
	}

	return nil
}

// Location resolves dashboard.timezone.
func (c *RosterConfig) Location() (*time.Location, error) {
	if c.Dashboard == nil || c.Dashboard.Timezone == "" || c.Dashboard.Timezone == DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Dashboard.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard.timezone '%s': %w", c.Dashboard.Timezone, err)
	}
	return loc, nil
}

// DeadlineWindow returns dashboard.deadline_window_days.
func (c *RosterConfig) DeadlineWindow() int {
	if c.Dashboard == nil || c.Dashboard.DeadlineWindowDays == nil {
		return DefaultDeadlineWindowDays
	}
	return *c.Dashboard.DeadlineWindowDays
}

// RedisOptions parses redis.url into client options.
func (c *RosterConfig) RedisOptions() (*redis.Options, error) {
	url := DefaultRedisURL
	if c.Redis != nil && c.Redis.URL != "" {
		url = c.Redis.URL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis.url: %w", err)
	}
	return opts, nil
}

// Load reads and validates roster.yml from the specified path
func Load(path string) (*RosterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config RosterConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
