// Package config loads bgrules settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yourusername/bgrules/pkg/engine"
)

// Config holds every setting the server and CLI read from the
// environment. Flags override these values.
type Config struct {
	Host         string        `env:"BGRULES_HOST" envDefault:"localhost"`
	Port         int           `env:"BGRULES_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"BGRULES_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"BGRULES_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"BGRULES_IDLE_TIMEOUT" envDefault:"60s"`

	MaxConcurrent int           `env:"BGRULES_MAX_CONCURRENT" envDefault:"100"`
	MaxSessions   int           `env:"BGRULES_MAX_SESSIONS" envDefault:"1000"`
	SessionTTL    time.Duration `env:"BGRULES_SESSION_TTL" envDefault:"30m"`

	LogLevel  string `env:"BGRULES_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BGRULES_LOG_FORMAT" envDefault:"text"`

	Layout  string `env:"BGRULES_LAYOUT" envDefault:"standard"`
	Doubles string `env:"BGRULES_DOUBLES" envDefault:"two"`
	Seed    uint64 `env:"BGRULES_SEED"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		panic(err) // defaults are constants
	}
	return cfg
}

// Load reads the process environment. Values from the given .env files
// (or ./.env when none are named and it exists) fill in variables the
// environment leaves unset.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	return LoadFrom(environMap(os.Environ()), files...)
}

// LoadFrom is Load over an explicit environment and explicit files.
func LoadFrom(environ map[string]string, files ...string) (Config, error) {
	merged := make(map[string]string, len(environ))
	if len(files) > 0 {
		dot, err := godotenv.Read(files...)
		if err != nil {
			return Config{}, fmt.Errorf("read env files: %w", err)
		}
		for k, v := range dot {
			merged[k] = v
		}
	}
	for k, v := range environ {
		merged[k] = v
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: merged}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func environMap(kv []string) map[string]string {
	m := make(map[string]string, len(kv))
	for _, e := range kv {
		if k, v, ok := strings.Cut(e, "="); ok {
			m[k] = v
		}
	}
	return m
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("max concurrent requests must be positive, got %d", c.MaxConcurrent))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("max sessions must be positive, got %d", c.MaxSessions))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.LogFormat))
	}
	if _, err := c.Rules(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// Logger builds the structured logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Rules returns the engine rule variant selected by Doubles.
func (c Config) Rules() (engine.Rules, error) {
	d, err := engine.ParseDoublesRule(c.Doubles)
	if err != nil {
		return engine.Rules{}, err
	}
	return engine.Rules{Doubles: d}, nil
}

// Roller returns the dice source: seeded when Seed is set, otherwise
// seeded from the clock.
func (c Config) Roller() engine.Roller {
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return engine.NewRandomRoller(seed)
}

// IsNotExist reports whether err came from a missing .env file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
