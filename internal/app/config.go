package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klabast/wb-services/festival-calendar/internal/events"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

// Constants
const (
	DefaultPort      = 8080
	DefaultStorePath = "events.json"
	DefaultAuthFile  = "auth.secret"

	BackendLunarGo     = "lunar-go"
	BackendApproximate = "approximate"

	// ICS constants
	ICSProductID = "-//Klabast//Festival Calendar//EN"
	ICSTimezone  = "Asia/Kuala_Lumpur"
	ICSDomain    = "festival-calendar.klabast.dev"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port      int
	EpochYear int
	Backend   string

	StoreDriver string
	StorePath   string

	FestivalsFile      string
	LunarFestivalsFile string

	LogLevel  string
	LogFormat string

	WriteRPS   float64
	WriteBurst int

	AuthFile string
}

// configFile mirrors the YAML schema of the optional config file.
type configFile struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Lunar struct {
		EpochYear int    `yaml:"epoch_year"`
		Backend   string `yaml:"backend"`
	} `yaml:"lunar"`
	Store struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"store"`
	Festivals struct {
		File      string `yaml:"file"`
		LunarFile string `yaml:"lunar_file"`
	} `yaml:"festivals"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	RateLimit struct {
		WriteRPS   float64 `yaml:"write_rps"`
		WriteBurst int     `yaml:"write_burst"`
	} `yaml:"rate_limit"`
	Auth struct {
		File string `yaml:"file"`
	} `yaml:"auth"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Port:        DefaultPort,
		EpochYear:   lunar.DefaultEpochYear,
		Backend:     BackendLunarGo,
		StoreDriver: events.DriverFile,
		StorePath:   DefaultStorePath,
		LogLevel:    "info",
		LogFormat:   "text",
		WriteRPS:    5,
		WriteBurst:  10,
	}
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// An empty path skips the file; a path that does not exist is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		f.apply(&cfg)
	}

	cfg.Port = envInt("FC_PORT", cfg.Port)
	cfg.EpochYear = envInt("FC_EPOCH_YEAR", cfg.EpochYear)
	cfg.Backend = strings.ToLower(envOrDefault("FC_BACKEND", cfg.Backend))
	cfg.StoreDriver = strings.ToLower(envOrDefault("FC_STORE_DRIVER", cfg.StoreDriver))
	cfg.StorePath = envOrDefault("FC_STORE_PATH", cfg.StorePath)
	cfg.FestivalsFile = envOrDefault("FC_FESTIVALS_FILE", cfg.FestivalsFile)
	cfg.LunarFestivalsFile = envOrDefault("FC_LUNAR_FESTIVALS_FILE", cfg.LunarFestivalsFile)
	cfg.LogLevel = strings.ToLower(envOrDefault("FC_LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(envOrDefault("FC_LOG_FORMAT", cfg.LogFormat))
	cfg.WriteRPS = envFloat("FC_WRITE_RPS", cfg.WriteRPS)
	cfg.WriteBurst = envInt("FC_WRITE_BURST", cfg.WriteBurst)
	cfg.AuthFile = envOrDefault("AUTH_FILE", cfg.AuthFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (f configFile) apply(cfg *Config) {
	if f.Server.Port > 0 {
		cfg.Port = f.Server.Port
	}
	if f.Lunar.EpochYear > 0 {
		cfg.EpochYear = f.Lunar.EpochYear
	}
	if f.Lunar.Backend != "" {
		cfg.Backend = f.Lunar.Backend
	}
	if f.Store.Driver != "" {
		cfg.StoreDriver = f.Store.Driver
	}
	if f.Store.Path != "" {
		cfg.StorePath = f.Store.Path
	}
	if f.Festivals.File != "" {
		cfg.FestivalsFile = f.Festivals.File
	}
	if f.Festivals.LunarFile != "" {
		cfg.LunarFestivalsFile = f.Festivals.LunarFile
	}
	if f.Log.Level != "" {
		cfg.LogLevel = f.Log.Level
	}
	if f.Log.Format != "" {
		cfg.LogFormat = f.Log.Format
	}
	if f.RateLimit.WriteRPS > 0 {
		cfg.WriteRPS = f.RateLimit.WriteRPS
	}
	if f.RateLimit.WriteBurst > 0 {
		cfg.WriteBurst = f.RateLimit.WriteBurst
	}
	if f.Auth.File != "" {
		cfg.AuthFile = f.Auth.File
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.EpochYear < 1900 || c.EpochYear > 2100 {
		return fmt.Errorf("epoch year %d out of range 1900..2100", c.EpochYear)
	}
	switch c.Backend {
	case BackendLunarGo, BackendApproximate:
	default:
		return fmt.Errorf("unknown lunar backend %q", c.Backend)
	}
	switch c.StoreDriver {
	case events.DriverFile, events.DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.StorePath == "" {
		return fmt.Errorf("missing store path")
	}
	if c.WriteRPS <= 0 || c.WriteBurst <= 0 {
		return fmt.Errorf("write rate limit must be positive")
	}
	return nil
}

// Loader returns the lunar backend loader for the configured backend.
func (c Config) Loader() lunar.Loader {
	if c.Backend == BackendApproximate {
		return nil
	}
	return lunar.LunarGoLoader()
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
