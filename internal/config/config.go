package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config carries the host-side interpreter settings. Everything here is
// about the surrounding tooling (REPL, GC tuning, boot data); language
// semantics are never configurable.
type Config struct {
	// Prompt is the REPL prompt text.
	Prompt string `yaml:"prompt"`

	// NoColor disables ANSI colors even on a terminal.
	NoColor bool `yaml:"no-color"`

	// Quiet suppresses the REPL banner.
	Quiet bool `yaml:"quiet"`

	// CollectThreshold is the stub-allocation budget between automatic
	// garbage collection sweeps. 0 disables automatic sweeps.
	CollectThreshold int `yaml:"collect-threshold"`

	// SymbolsHint presizes the symbol intern table.
	SymbolsHint int `yaml:"symbols-hint"`

	// BootFile optionally points at an external boot blob; empty means
	// the compiled-in boot data is used.
	BootFile string `yaml:"boot-file"`
}

// Default is the configuration used when no file is present.
func Default() Config {
	return Config{
		Prompt:           DefaultPrompt,
		CollectThreshold: DefaultCollectThreshold,
		SymbolsHint:      DefaultSymbolsHint,
	}
}

// Load reads a YAML config file, layering it over the defaults. Unknown
// keys are rejected so typos surface instead of silently doing nothing.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds the effective config: $RELIC_CONFIG if set, otherwise
// $HOME/.relic.yml if present, otherwise the defaults.
func Discover() (Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	path := filepath.Join(home, DefaultConfigName)
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}
