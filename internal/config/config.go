// Package config carries the tool's runtime settings. Everything is sourced
// from the environment (this tool runs where environment variables are the
// only configuration channel); command-line flags override afterwards.
package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"

	"github.com/systmms/secretsinit/internal/logging"
)

// Settings are the env-derived knobs.
type Settings struct {
	// Prefix marks environment variables whose values are secret references.
	Prefix string `env:"SECRETSINIT_PREFIX, default=SECRET_"`

	// KeepReferences retains the raw prefixed entries in the child
	// environment alongside the derived values.
	KeepReferences bool `env:"SECRETSINIT_KEEP_REFERENCES, default=false"`

	Debug   bool `env:"SECRETSINIT_DEBUG, default=false"`
	NoColor bool `env:"SECRETSINIT_NO_COLOR, default=false"`
}

// Config is the shared state handed to commands.
type Config struct {
	Settings
	Logger *logging.Logger
}

// Load reads Settings from the process environment.
func Load(ctx context.Context) (Settings, error) {
	var s Settings
	if err := envconfig.Process(ctx, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
