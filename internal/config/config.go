package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Calendar struct {
		DaysFile string `yaml:"daysFile"`
		Start    string `yaml:"start"`
		Timezone string `yaml:"timezone"`
		TTL      string `yaml:"ttl"`
	} `yaml:"calendar"`
	Modal struct {
		SuccessDelay    string `yaml:"successDelay"`
		WrongResetDelay string `yaml:"wrongResetDelay"`
	} `yaml:"modal"`
	// App mirrors the packaging metadata of the web/mobile shell.
	App struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		WebDir string `yaml:"webDir"`
	} `yaml:"app"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// CalendarStart returns the unlock date of day 1 at local midnight, or the
// zero time when no start is configured.
func (c Config) CalendarStart() (time.Time, error) {
	if c.Calendar.Start == "" {
		return time.Time{}, nil
	}
	loc := time.UTC
	if c.Calendar.Timezone != "" {
		l, err := time.LoadLocation(c.Calendar.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("calendar timezone: %w", err)
		}
		loc = l
	}
	start, err := time.ParseInLocation("2006-01-02", c.Calendar.Start, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar start: %w", err)
	}
	return start, nil
}
