package devtools

import (
	"fmt"
	"os"

	"github.com/go-drift/drift/pkg/core"
	"gopkg.in/yaml.v3"
)

// Config controls what a Server exposes and how the frame pipeline it's
// attached to behaves under instrumentation. It's meant to be loaded once
// at startup from a small YAML file rather than threaded through flags.
type Config struct {
	// Addr is the listen address for the HTTP server, e.g. ":7582". Empty
	// disables the server entirely (Snapshot* functions remain usable
	// standalone).
	Addr string `yaml:"addr"`

	// ErrorRecovery selects how RunFrame reacts to a phase error: "continue"
	// (the default) or "stop".
	ErrorRecovery string `yaml:"errorRecovery"`

	// MetricsEnabled toggles whether the pipeline records OTel histograms
	// for frame/build/layout/paint durations.
	MetricsEnabled bool `yaml:"metricsEnabled"`

	// MaxTreeDepth records a recursion guard for serializing the
	// widget/render trees. Zero keeps the package default. The Snapshot
	// functions and Server do not read it; they always use the package
	// default.
	MaxTreeDepth int `yaml:"maxTreeDepth"`
}

// DefaultConfig returns the configuration used when no file is loaded.
func DefaultConfig() Config {
	return Config{
		Addr:           "",
		ErrorRecovery:  "continue",
		MetricsEnabled: true,
		MaxTreeDepth:   maxTreeDepth,
	}
}

// LoadConfig reads and parses a YAML devtools config from path, filling in
// DefaultConfig's values for anything the file leaves unset.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("devtools: read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("devtools: parse config: %w", err)
	}
	if cfg.MaxTreeDepth <= 0 {
		cfg.MaxTreeDepth = maxTreeDepth
	}
	return cfg, nil
}

// Policy translates the YAML-friendly ErrorRecovery string into the
// core.ErrorRecoveryPolicy RunFrame expects.
func (c Config) Policy() core.ErrorRecoveryPolicy {
	if c.ErrorRecovery == "stop" {
		return core.PolicyPropagate
	}
	return core.PolicySubstitutePlaceholder
}
