// Package cli holds the bootstrap steps shared by cmd/wallet and
// cmd/wallet-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"smartwallet/internal/config"
	wlog "smartwallet/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is fine; production sets the environment directly.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger installs the process logger described by cfg as the slog
// default.
func SetupLogger(cfg *config.Config, component string) (*slog.Logger, error) {
	return wlog.Setup(wlog.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
}

// Bootstrap runs the env, config and logger steps in order.
func Bootstrap(component string) (*config.Config, *slog.Logger, error) {
	if err := LoadEnvFile(); err != nil {
		return nil, nil, err
	}
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := SetupLogger(cfg, component)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
