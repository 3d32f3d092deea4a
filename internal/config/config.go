package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port string
	// DatabaseURL is optional; without it games live in memory only.
	DatabaseURL    string
	LogLevel       zapcore.Level
	OriginPatterns []string
	SweepInterval  time.Duration
}

func (c Config) Addr() string { return ":" + c.Port }

func Defaults() Config {
	return Config{
		Port:          "8080",
		LogLevel:      zapcore.InfoLevel,
		SweepInterval: time.Second,
	}
}

// Load reads the given dotenv files (".env" if none), then the process
// environment. Missing files are ignored and variables already set in the
// environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a config from a lookup function such as os.LookupEnv.
// Empty values fall back to defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return Config{}, fmt.Errorf("%w: PORT %q", ErrInvalidConfig, v)
		}
		cfg.Port = v
	}
	if v, ok := get("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: LOG_LEVEL: %w", ErrInvalidConfig, err)
		}
		cfg.LogLevel = lvl
	}
	if v, ok := get("ORIGIN_PATTERNS"); ok {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.OriginPatterns = append(cfg.OriginPatterns, p)
			}
		}
	}
	if v, ok := get("SWEEP_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%w: SWEEP_INTERVAL %q", ErrInvalidConfig, v)
		}
		cfg.SweepInterval = d
	}
	return cfg, nil
}
