package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is the project file the CLI looks for when no --config
// flag is given.
const DefaultFileName = "actionc.toml"

// Config is the decoded actionc.toml project file. CLI flags override these
// values after loading.
type Config struct {
	// Directory the include patterns are resolved against.
	Root string `toml:"root"`

	// Glob patterns (slash-separated, relative to Root) selecting the source
	// files to transform. "**" matches across directory separators.
	Include []string `toml:"include"`

	// Directory transformed files are written to, mirroring their paths
	// relative to Root.
	OutDir string `toml:"out_dir"`

	// True when the output targets a trusted server-only runtime.
	Server bool `toml:"server"`

	// Number of files transformed in parallel.
	Jobs int64 `toml:"jobs"`

	Cache CacheConfig `toml:"cache"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`

	// Empty means $XDG_CACHE_HOME/actionc, falling back to ~/.cache/actionc.
	Dir string `toml:"dir"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Root:    ".",
		Include: []string{"**/*.js", "**/*.mjs"},
		OutDir:  "dist",
		Server:  true,
		Jobs:    int64(runtime.NumCPU()),
		Cache:   CacheConfig{Enabled: true},
	}
}

// Load reads and validates a project file. Keys absent from the file keep
// their defaults; keys the schema doesn't know about are an error so typos
// don't silently change nothing.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("%s: unknown key %q", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate(path string) error {
	if strings.TrimSpace(cfg.Root) == "" {
		return fmt.Errorf("%s: root must not be empty", path)
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		return fmt.Errorf("%s: out_dir must not be empty", path)
	}
	if len(cfg.Include) == 0 {
		return fmt.Errorf("%s: include must list at least one pattern", path)
	}
	for _, pattern := range cfg.Include {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%s: include patterns must not be empty", path)
		}
	}
	if cfg.Jobs < 1 {
		return fmt.Errorf("%s: jobs must be at least 1", path)
	}
	return nil
}

// CacheDir resolves the cache directory, applying the XDG fallback chain
// when the project file leaves it empty.
func (cfg *Config) CacheDir() (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	if base := os.Getenv("XDG_CACHE_HOME"); base != "" {
		return filepath.Join(base, "actionc"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return filepath.Join(home, ".cache", "actionc"), nil
}
