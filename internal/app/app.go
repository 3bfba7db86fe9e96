// Package app wires the process: configuration, the logging router, the
// result store, the hub, and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	server "drift-and-draft/server"
	servernet "drift-and-draft/server/internal/net"
	"drift-and-draft/server/internal/storage/sqlite"
	"drift-and-draft/server/logging"
	loggingsinks "drift-and-draft/server/logging/sinks"
)

// Config is the process environment. Race option overrides arm the lobby
// default; spectators can still reconfigure between races.
type Config struct {
	Addr        string `env:"DRIFT_ADDR" envDefault:":8080"`
	ClientDir   string `env:"DRIFT_CLIENT_DIR"`
	DBPath      string `env:"DRIFT_DB_PATH"`
	LogLevel    string `env:"DRIFT_LOG_LEVEL" envDefault:"info"`
	LogJSONPath string `env:"DRIFT_LOG_JSON_PATH"`
	LogColor    bool   `env:"DRIFT_LOG_COLOR"`
	Seed        string `env:"DRIFT_SEED"`
	TrackID     string `env:"DRIFT_TRACK"`
	Laps        int    `env:"DRIFT_LAPS"`
	Weather     string `env:"DRIFT_WEATHER"`
	Drivers     int    `env:"DRIFT_DRIVERS"`
}

// LoadConfig reads the process configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Run starts the server and blocks until the listener fails.
func Run(ctx context.Context, cfg Config) error {
	logger := log.Default()

	router, err := buildRouter(cfg, logger)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hubCfg := server.DefaultHubConfig()
	hubCfg.Logger = logger
	if cfg.Seed != "" {
		hubCfg.Seed = cfg.Seed
	}
	if cfg.TrackID != "" {
		hubCfg.Options.TrackID = cfg.TrackID
	}
	if cfg.Laps > 0 {
		hubCfg.Options.Laps = cfg.Laps
	}
	if cfg.Weather != "" {
		hubCfg.Options.Weather = server.Weather(cfg.Weather)
	}
	if cfg.Drivers > 0 {
		hubCfg.Options.Drivers = cfg.Drivers
	}

	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open result store: %w", err)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Printf("failed to close result store: %v", cerr)
			}
		}()
		hubCfg.Store = store
	} else {
		logger.Printf("DRIFT_DB_PATH unset, race results will not be persisted")
	}

	hub := server.NewHubWithConfig(hubCfg, router)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	clientDir := cfg.ClientDir
	if clientDir != "" {
		clientDir = filepath.Clean(clientDir)
	}
	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir: clientDir,
		Logger:    logger,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	logger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// buildRouter assembles the event pipeline: console always, the JSON file
// sink when a path is configured.
func buildRouter(cfg Config, fallback *log.Logger) (*logging.Router, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Console.UseColor = cfg.LogColor
	if severity, ok := logging.ParseSeverity(cfg.LogLevel); ok {
		logCfg.MinimumSeverity = severity
	} else if cfg.LogLevel != "" {
		fallback.Printf("unknown DRIFT_LOG_LEVEL=%q, keeping %q", cfg.LogLevel, "info")
	}

	sinks := map[string]logging.Sink{
		logging.SinkConsole: loggingsinks.NewConsole(os.Stdout, logCfg.Console),
	}
	if cfg.LogJSONPath != "" {
		logCfg = logCfg.EnableJSON(cfg.LogJSONPath)
		file, err := os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open event log %s: %w", cfg.LogJSONPath, err)
		}
		sinks[logging.SinkJSON] = loggingsinks.NewJSON(file, logCfg.JSON)
	}

	return logging.NewRouter(logCfg, logging.SystemClock{}, fallback, sinks)
}
