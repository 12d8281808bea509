package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL      string     `yaml:"database_url"`
	RedisURL         string     `yaml:"redis_url"`
	ServerPort       string     `yaml:"server_port"`
	Timezone         string     `yaml:"schedule_timezone"`
	LogLevel         string     `yaml:"log_level"`
	SeedTemplate     []SeedSlot `yaml:"seed_template"`
	ContactRateLimit int        `yaml:"contact_rate_limit"`
	CORSOrigins      []string   `yaml:"cors_origins"`
	UserAgent        string     `yaml:"user_agent"`
	Timeout          string     `yaml:"timeout"`
}

// LoadFromFile loads config from a YAML file. Missing keys take the same defaults as Load.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &Config{
		DatabaseURL:      f.DatabaseURL,
		RedisURL:         f.RedisURL,
		ServerPort:       f.ServerPort,
		Timezone:         f.Timezone,
		LogLevel:         f.LogLevel,
		SeedTemplate:     f.SeedTemplate,
		ContactRateLimit: f.ContactRateLimit,
		CORSOrigins:      f.CORSOrigins,
		UserAgent:        f.UserAgent,
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}
