// Package config loads portal configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Harbor struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"harbor"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Jobs struct {
		SweepCron string `yaml:"sweep_cron"`
		TTLHours  int    `yaml:"ttl_hours"`
	} `yaml:"jobs"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Database.SQLitePath = "portal.db"
	cfg.Jobs.SweepCron = "@every 15m"
	cfg.Jobs.TTLHours = 24
	cfg.LogLevel = "info"

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HARBOR_BASE_URL"); v != "" {
		cfg.Harbor.BaseURL = v
	}
	if v := os.Getenv("HARBOR_API_KEY"); v != "" {
		cfg.Harbor.APIKey = v
	}
	if v := os.Getenv("PORTAL_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
