package cmd

import (
	"fmt"
	"log/slog"

	"github.com/jyoonje/collabview-plugin/internal/config"
	"github.com/jyoonje/collabview-plugin/internal/db"
	"github.com/jyoonje/collabview-plugin/internal/logging"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `collabview init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the logger from config; --verbose forces debug.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logging.New(level, string(cfg.Log.Format))
	slog.SetDefault(log)
	return log
}

// openDatabase opens the catalog database under the configured data dir.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}
