// Command bgserver serves local backgammon games over HTTP, WebSocket and
// Server-Sent Events.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/yourusername/bgrules/internal/config"
	"github.com/yourusername/bgrules/internal/layout"
	"github.com/yourusername/bgrules/pkg/api"
	"github.com/yourusername/bgrules/pkg/engine"
)

const version = "0.1.0"

func main() {
	envFile := flag.String("env-file", "", "Read settings from this .env file (default ./.env when present)")
	host := flag.String("host", "", "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", 0, "Port to listen on")
	layoutRef := flag.String("layout", "", "Default layout: preset name or YAML/JSON file")
	doubles := flag.String("doubles", "", "Doubles rule for new games: two or four")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	readTimeout := flag.Duration("read-timeout", 0, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 0, "HTTP write timeout")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("bgrules server v%s\n", version)
		os.Exit(0)
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgserver: %v\n", err)
		os.Exit(1)
	}

	// Flags win over the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "layout":
			cfg.Layout = *layoutRef
		case "doubles":
			cfg.Doubles = *doubles
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.WriteTimeout = *writeTimeout
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "bgserver: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	defaults, err := gameDefaults(cfg)
	if err != nil {
		logger.Error("invalid game defaults", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(api.ServerConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		MaxRequests:  cfg.MaxConcurrent,
		MaxStreams:   api.DefaultPoolConfig().MaxStreams,
		MaxSessions:  cfg.MaxSessions,
		SessionTTL:   cfg.SessionTTL,
		Defaults:     defaults,
		Logger:       logger,
	}, version)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// gameDefaults resolves the configured layout and rules once at startup.
// A fixed seed gives each new game its own reproducible dice stream.
func gameDefaults(cfg config.Config) (api.GameDefaults, error) {
	f, err := layout.Resolve(cfg.Layout)
	if err != nil {
		return api.GameDefaults{}, err
	}
	l, err := f.Layout()
	if err != nil {
		return api.GameDefaults{}, err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return api.GameDefaults{}, err
	}
	if f.Doubles != "" {
		if rules, err = f.Rules(); err != nil {
			return api.GameDefaults{}, err
		}
	}

	d := api.GameDefaults{Layout: l, Rules: rules}
	if cfg.Seed != 0 {
		var games atomic.Uint64
		d.NewRoller = func() engine.Roller {
			return engine.NewRandomRoller(cfg.Seed + games.Add(1) - 1)
		}
	}
	return d, nil
}
