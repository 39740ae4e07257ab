package recorder

import (
	"fmt"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

const defaultDir = "data"

// Config controls where and in which shape account records are persisted.
type Config struct {
	Dir  string
	Mode schema.PersistMode
}

// DefaultConfig returns a baseline configuration for the store.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:  dir,
		Mode: schema.PersistHistorical,
	}
}

func (c Config) withDefaults() Config {
	if c.Dir == "" {
		c.Dir = defaultDir
	}
	if c.Mode == 0 {
		c.Mode = schema.PersistHistorical
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid recorder config: Dir is empty")
	}
	if !c.Mode.IsAvailable() {
		return fmt.Errorf("invalid recorder config: unknown persist mode")
	}
	return nil
}
