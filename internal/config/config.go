package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidTimezone is returned when schedule_timezone is not an IANA zone name.
	ErrInvalidTimezone = errors.New("schedule_timezone is not a known IANA zone")
	// ErrInvalidSeedSlot is returned for a seed template slot that is not HH:MM-HH:MM.
	ErrInvalidSeedSlot = errors.New("seed slot must look like HH:MM-HH:MM")
)

// SeedSlot maps a daily time slot ("06:00-07:30") to a program title.
// EmbedURL is used when the seeder has to create the program.
type SeedSlot struct {
	Slot     string `yaml:"slot"`
	Title    string `yaml:"title"`
	EmbedURL string `yaml:"embed_url,omitempty"`
}

// Config holds application configuration. An empty DatabaseURL selects the in-memory store
// and an empty RedisURL disables caching, the seed lock and the contact queue.
type Config struct {
	DatabaseURL      string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL         string        `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort       string        `yaml:"server_port" env:"SERVER_PORT"`
	Timezone         string        `yaml:"schedule_timezone" env:"SCHEDULE_TIMEZONE"`
	LogLevel         string        `yaml:"log_level" env:"LOG_LEVEL"`
	SeedTemplate     []SeedSlot    `yaml:"seed_template" env:"SEED_TEMPLATE"`
	ContactRateLimit int           `yaml:"contact_rate_limit" env:"CONTACT_RATE_LIMIT"`
	CORSOrigins      []string      `yaml:"cors_origins" env:"CORS_ORIGINS"`
	UserAgent        string        `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	Timeout          time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT"`

	// Location is Timezone resolved by Load/LoadFromFile.
	Location *time.Location `yaml:"-"`
}

const (
	defaultServerPort       = "8080"
	defaultTimezone         = "UTC"
	defaultUserAgent        = "NowPlaying/1.0"
	defaultTimeout          = 30 * time.Second
	defaultContactRateLimit = 5
)

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env from the current directory.
// SEED_TEMPLATE is a semicolon-separated list of slot=title pairs; CORS_ORIGINS is comma-separated.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		ServerPort:  os.Getenv("SERVER_PORT"),
		Timezone:    os.Getenv("SCHEDULE_TIMEZONE"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		UserAgent:   os.Getenv("FETCHER_USER_AGENT"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS"), ","),
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("CONTACT_RATE_LIMIT"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("CONTACT_RATE_LIMIT: %w", err)
		}
		c.ContactRateLimit = n
	}
	for _, pair := range splitList(os.Getenv("SEED_TEMPLATE"), ";") {
		slot, title, _ := strings.Cut(pair, "=")
		c.SeedTemplate = append(c.SeedTemplate, SeedSlot{Slot: strings.TrimSpace(slot), Title: strings.TrimSpace(title)})
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// finish applies defaults and validates; shared by Load and LoadFromFile.
func (c *Config) finish() error {
	if c.ServerPort == "" {
		c.ServerPort = defaultServerPort
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ContactRateLimit <= 0 {
		c.ContactRateLimit = defaultContactRateLimit
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone)
	}
	c.Location = loc
	for _, s := range c.SeedTemplate {
		if _, _, err := ParseSlot(s.Slot); err != nil {
			return err
		}
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("seed slot %s: empty title", s.Slot)
		}
	}
	return nil
}

// ParseSlot splits "HH:MM-HH:MM" into offsets from midnight.
// An end at or before the start means the slot runs past midnight.
func ParseSlot(slot string) (start, end time.Duration, err error) {
	a, b, ok := strings.Cut(slot, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeedSlot, slot)
	}
	if start, err = parseClock(a); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeedSlot, slot)
	}
	if end, err = parseClock(b); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeedSlot, slot)
	}
	return start, end, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
