// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

var validate = validator.New()

type AppConfig struct {
	Port string

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console

	// Astronomical sources, in priority order.
	Sources           []string
	HTTPTimeout       time.Duration
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	SolarTimezone     string

	// AllowSynthetic serves a labelled 06:00-18:00 day when no source answers.
	AllowSynthetic bool
	RulerMode      planetary.RulerMode

	// Used when no location has been stored yet.
	DefaultLocation *planetary.Location

	// Location store.
	StoreDriver     string
	StorePath       string
	StoreMaxHistory int // max number of stored locations kept (0 = unlimited)

	// Hour alarm.
	AlarmEnabled  bool
	AlarmInterval time.Duration
}

// Load reads configuration from environment with sensible defaults. A .env
// file is loaded first if present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var errs []error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "json"))

	cfg.Sources = splitList(getenvDefault("ALMANAC_SOURCES", "openweather,weatherapi,openmeteo"))
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.SolarTimezone = os.Getenv("SOLAR_TIMEZONE")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err))
	}
	cfg.HTTPTimeout = timeout

	cfg.AllowSynthetic = getenvBool("ALLOW_SYNTHETIC", true)

	mode, err := planetary.ParseRulerMode(os.Getenv("RULER_MODE"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid RULER_MODE: %w", err))
	}
	cfg.RulerMode = mode

	loc, err := loadDefaultLocation()
	if err != nil {
		errs = append(errs, err)
	}
	cfg.DefaultLocation = loc

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", StoreMemory))
	cfg.StorePath = getenvDefault("STORE_PATH", "./data/alchemelody.db")
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 100)

	cfg.AlarmEnabled = getenvBool("ALARM_ENABLED", true)
	interval, err := time.ParseDuration(getenvDefault("ALARM_INTERVAL", "1m"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid ALARM_INTERVAL: %w", err))
	}
	cfg.AlarmInterval = interval

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *AppConfig) Validate() error {
	var errs []error

	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %q", c.Port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, console; got %q", c.LogFormat))
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}

	if len(c.Sources) == 0 && !c.AllowSynthetic {
		errs = append(errs, errors.New("ALMANAC_SOURCES is empty and ALLOW_SYNTHETIC is off"))
	}

	if c.DefaultLocation != nil {
		if err := validate.Struct(c.DefaultLocation); err != nil {
			errs = append(errs, fmt.Errorf("DEFAULT_LATITUDE/DEFAULT_LONGITUDE: %w", err))
		}
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.StorePath == "" {
			errs = append(errs, errors.New("STORE_PATH is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of: memory, sqlite; got %q", c.StoreDriver))
	}

	if c.AlarmEnabled && c.AlarmInterval < time.Second {
		errs = append(errs, fmt.Errorf("ALARM_INTERVAL must be at least 1s, got %s", c.AlarmInterval))
	}

	return errors.Join(errs...)
}

func loadDefaultLocation() (*planetary.Location, error) {
	lat := os.Getenv("DEFAULT_LATITUDE")
	lon := os.Getenv("DEFAULT_LONGITUDE")
	if lat == "" && lon == "" {
		return nil, nil
	}
	if lat == "" || lon == "" {
		return nil, errors.New("DEFAULT_LATITUDE and DEFAULT_LONGITUDE must be set together")
	}

	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LATITUDE: %w", err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LONGITUDE: %w", err)
	}
	return &planetary.Location{Latitude: la, Longitude: lo}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
