package backend

import (
	"errors"
	"fmt"
	"strings"

	"smartwallet/internal/config"
)

var backendTypes = []BackendType{MemoryBackend, SQLiteBackend}

// FromAppConfig picks the store settings out of the process configuration.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("backend: nil configuration")
	}

	c := Config{
		Type:         BackendType(strings.ToLower(strings.TrimSpace(cfg.DataBackend))),
		SQLiteDBPath: cfg.SQLiteDBPath,
	}
	if !c.Type.IsValid() {
		return Config{}, fmt.Errorf("backend: unknown DATA_BACKEND %q, want one of %v", cfg.DataBackend, GetBackendTypeStrings())
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case !c.Type.IsValid():
		return fmt.Errorf("backend: unknown type %q", c.Type)
	case c.Type == SQLiteBackend && c.SQLiteDBPath == "":
		return errors.New("backend: sqlite needs a database path")
	}
	return nil
}

// GetBackendTypeStrings lists the accepted DATA_BACKEND values.
func GetBackendTypeStrings() []string {
	out := make([]string, len(backendTypes))
	for i, t := range backendTypes {
		out[i] = t.String()
	}
	return out
}
