// Package config loads remedy.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "remedy.toml"

// NewlineMode selects the LY1518 behaviour.
type NewlineMode string

const (
	NewlineRequire NewlineMode = "require"
	NewlineOmit    NewlineMode = "omit"
	NewlineAllow   NewlineMode = "allow"
)

// Config is the decoded remedy.toml.
type Config struct {
	// Path of the file the config came from; empty for defaults.
	Path string `toml:"-"`

	Fix     FixConfig     `toml:"fix"`
	Layout  LayoutConfig  `toml:"layout"`
	Spacing SpacingConfig `toml:"spacing"`
	Trace   TraceConfig   `toml:"trace"`
}

type FixConfig struct {
	Jobs     int      `toml:"jobs"`
	Rules    []string `toml:"rules"`
	Disable  []string `toml:"disable"`
	Cache    bool     `toml:"cache"`
	CacheDir string   `toml:"cache_dir"`
}

type LayoutConfig struct {
	NewlineAtEOF NewlineMode `toml:"newline_at_eof"`
}

type SpacingConfig struct {
	// Comment prefixes that must stay glued to the marker, e.g. "//go:".
	CommentDirectives []string `toml:"comment_directives"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Mode   string `toml:"mode"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Fix: FixConfig{
			Cache: true,
		},
		Layout: LayoutConfig{
			NewlineAtEOF: NewlineRequire,
		},
		Spacing: SpacingConfig{
			CommentDirectives: []string{"go:", "nolint", "lint:"},
		},
		Trace: TraceConfig{
			Level:  "off",
			Output: "",
			Mode:   "stream",
		},
	}
}

// Enabled reports whether rule takes part in the run: it must be listed in
// Rules (when Rules is set) and not listed in Disable.
func (c Config) Enabled(rule string) bool {
	if slices.Contains(c.Fix.Disable, rule) {
		return false
	}
	return len(c.Fix.Rules) == 0 || slices.Contains(c.Fix.Rules, rule)
}

// Find walks up from startDir to locate remedy.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
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
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes remedy.toml starting at startDir. Without a file it
// returns Default().
func Load(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile decodes path over the defaults. Keys missing from the file keep
// their default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("spacing", "comment_directives") && cfg.Spacing.CommentDirectives == nil {
		cfg.Spacing.CommentDirectives = []string{}
	}
	cfg.Path = path
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Fix.Jobs < 0 {
		return fmt.Errorf("[fix].jobs must not be negative, got %d", c.Fix.Jobs)
	}
	switch c.Layout.NewlineAtEOF {
	case NewlineRequire, NewlineOmit, NewlineAllow:
	default:
		return fmt.Errorf("[layout].newline_at_eof must be require, omit or allow, got %q", c.Layout.NewlineAtEOF)
	}
	for _, d := range c.Spacing.CommentDirectives {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("[spacing].comment_directives contains an empty prefix")
		}
	}
	for _, r := range c.Fix.Rules {
		if slices.Contains(c.Fix.Disable, r) {
			return fmt.Errorf("rule %s is both enabled and disabled", r)
		}
	}
	return nil
}
