// Package config loads clever.toml project settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/vm"
)

const FileName = "clever.toml"

type Config struct {
	Compiler CompilerConfig `toml:"compiler"`
	VM       VMConfig       `toml:"vm"`
	Modules  ModulesConfig  `toml:"modules"`
}

type CompilerConfig struct {
	ValueHint int `toml:"value_hint"`
	ScopeHint int `toml:"scope_hint"`
}

type VMConfig struct {
	MaxCallDepth int  `toml:"max_call_depth"`
	Trace        bool `toml:"trace"`
}

type ModulesConfig struct {
	Disabled []string `toml:"disabled"`
}

// Load decodes the file at path. Keys clever does not know are an error.
func Load(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	return cfg, nil
}

// Find walks up from dir looking for clever.toml.
func Find(dir string) (string, bool, error) {
	if dir == "" {
		dir = "."
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the nearest clever.toml above dir, or the zero Config when
// there is none.
func Discover(dir string) (Config, string, error) {
	path, ok, err := Find(dir)
	if err != nil || !ok {
		return Config{}, "", err
	}

	cfg, err := Load(path)
	if err != nil {
		return Config{}, "", err
	}

	return cfg, path, nil
}

func (c Config) CompilerConfig(file string, importer compiler.Importer) compiler.Config {
	return compiler.Config{
		File:      file,
		ValueHint: c.Compiler.ValueHint,
		ScopeHint: c.Compiler.ScopeHint,
		Importer:  importer,
	}
}

func (c Config) VMConfig() vm.Config {
	return vm.Config{
		MaxCallDepth: c.VM.MaxCallDepth,
		Trace:        c.VM.Trace,
	}
}
