// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/cipherbreak/internal/model"
)

// Defaults shared by the config template and CLI flags.
const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultProgressRate = 30.0
	DefaultMaxRuns      = 4
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Ngrams       NgramsConfig       `toml:"ngrams"`
	Substitution SubstitutionConfig `toml:"substitution"`
	Serve        ServeConfig        `toml:"serve"`
}

// NgramsConfig maps n-gram table settings.
type NgramsConfig struct {
	Dir *string `toml:"dir"`
}

// SubstitutionConfig maps substitution solver settings.
type SubstitutionConfig struct {
	Threshold   *float64 `toml:"threshold"`
	MaxRestarts *int     `toml:"max-restarts"`
	MaxSweeps   *int     `toml:"max-sweeps"`
	NgramSize   *int     `toml:"ngram-size"`
	Seed        *int64   `toml:"seed"`
}

// ServeConfig maps HTTP API settings.
type ServeConfig struct {
	Addr           *string   `toml:"addr"`
	ProgressRate   *float64  `toml:"progress-rate"`
	MaxRuns        *int      `toml:"max-runs"`
	AllowedOrigins *[]string `toml:"allowed-origins"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template returns the commented config file written by the config command.
func Template() string {
	sub := model.DefaultSubstitutionOptions()
	return fmt.Sprintf(`# cipherbreak configuration
# Uncomment a value to enable it. CLI flags override config values.

[ngrams]
# dir = %q    # Directory holding NGRAM.txt tables; the built-in tables are used when empty

[substitution]
# threshold = %.2f        # Rating below which a converged key stops the search
# max-restarts = %d     # Random restarts before giving up
# max-sweeps = %d       # Swap sweeps per restart
# ngram-size = %d          # N-gram length used to rate keys
# seed = 0                # Restart seed (0 = time based)

[serve]
# addr = %q   # HTTP listen address
# progress-rate = %.0f     # Websocket progress frames per second
# max-runs = %d            # Solves running at once; more are refused with 429
# allowed-origins = []    # Extra browser origins, e.g. ["http://localhost:5173"]
`,
		DefaultNgramDir(),
		sub.Threshold,
		sub.MaxRestarts,
		sub.MaxSweeps,
		sub.NgramSize,
		DefaultAddr,
		DefaultProgressRate,
		DefaultMaxRuns,
	)
}
