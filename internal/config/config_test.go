package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigName)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, "prompt: \">>> \"\nquiet: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != ">>> " {
		t.Errorf("prompt: got %q", cfg.Prompt)
	}
	if !cfg.Quiet {
		t.Error("quiet not applied")
	}
	// untouched keys keep their defaults
	if cfg.CollectThreshold != DefaultCollectThreshold {
		t.Errorf("collect-threshold: got %d", cfg.CollectThreshold)
	}
	if cfg.SymbolsHint != DefaultSymbolsHint {
		t.Errorf("symbols-hint: got %d", cfg.SymbolsHint)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "promt: \">> \"\n") // typo must surface

	if _, err := Load(path); err == nil {
		t.Fatal("unknown key must be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("missing file must report an error")
	}
}

func TestDiscoverPrefersEnv(t *testing.T) {
	path := writeConfig(t, "no-color: true\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Discover()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.NoColor {
		t.Fatal("env-pointed config not loaded")
	}
}

func TestDiscoverFallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", t.TempDir()) // no config file there

	cfg, err := Discover()
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("want pure defaults, got %+v", cfg)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Prompt != DefaultPrompt {
		t.Errorf("prompt: got %q", cfg.Prompt)
	}
	if cfg.BootFile != "" {
		t.Error("no boot file by default")
	}
	if cfg.CollectThreshold <= 0 {
		t.Error("automatic collection must be on by default")
	}
}
