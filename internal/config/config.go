// Package config loads layered TOML configuration files. A project may carry
// an asplint.toml (or hidden .asplint.toml) anywhere above the checked path;
// files closer to the path win over files further up, and command-line flags
// win over all of them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileNames are the recognized configuration file names, probed in order
// within each directory.
var FileNames = []string{".asplint.toml", "asplint.toml"}

// Config holds the settings a configuration file may define. Pointer fields
// distinguish "unset" from an explicit false or empty value, which is what
// makes layered merging possible.
type Config struct {
	Format         *string  `toml:"format"`
	Color          *bool    `toml:"color"`
	Verbose        *bool    `toml:"verbose"`
	QuietSuccess   *bool    `toml:"quiet_success"`
	Strict         *bool    `toml:"strict"`
	IgnoreWarnings []string `toml:"ignore_warnings"`
	Exclude        *string  `toml:"exclude"`
	ReplaceExclude *bool    `toml:"replace_exclude"`
}

// FromFile parses one configuration file.
func FromFile(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Found pairs a loaded configuration with the file it came from.
type Found struct {
	Path   string
	Config *Config
}

// FindConfigs walks up the directory tree from start collecting every
// configuration file, ordered most specific first. Unreadable files are
// reported on stderr and skipped rather than aborting the lookup.
func FindConfigs(start string) []Found {
	dir := start
	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		dir = filepath.Dir(start)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}

	var found []Found
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := FromFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to load config from %s: %v\n", path, err)
				continue
			}
			found = append(found, Found{Path: path, Config: cfg})
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return found
}

// Merge combines c with a more general config. c's values take precedence;
// ignore_warnings lists are concatenated rather than replaced.
func (c *Config) Merge(other *Config) *Config {
	merged := &Config{
		Format:         orString(c.Format, other.Format),
		Color:          orBool(c.Color, other.Color),
		Verbose:        orBool(c.Verbose, other.Verbose),
		QuietSuccess:   orBool(c.QuietSuccess, other.QuietSuccess),
		Strict:         orBool(c.Strict, other.Strict),
		Exclude:        orString(c.Exclude, other.Exclude),
		ReplaceExclude: orBool(c.ReplaceExclude, other.ReplaceExclude),
	}
	if len(c.IgnoreWarnings) > 0 || len(other.IgnoreWarnings) > 0 {
		merged.IgnoreWarnings = append(append([]string{}, c.IgnoreWarnings...), other.IgnoreWarnings...)
	}
	return merged
}

// Effective resolves the configuration stack for start into one config.
func Effective(start string) *Config {
	cfg := &Config{}
	for _, f := range FindConfigs(start) {
		cfg = cfg.Merge(f.Config)
	}
	return cfg
}

func orString(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

func orBool(a, b *bool) *bool {
	if a != nil {
		return a
	}
	return b
}

// DefaultTemplate is the commented starter configuration written by the
// init-config command.
const DefaultTemplate = `# asplint configuration
# Place this file in your project directory as asplint.toml, or as a hidden
# .asplint.toml, or in any parent directory. Closer files take precedence,
# and command-line flags override everything here.

# Output format: "ascii" (human-readable), "ci" (GitHub Actions), "json"
# format = "ascii"

# Enable or disable colored output in terminal
# color = true

# Enable verbose output with detailed parsing information
# verbose = false

# Hide success messages (only show errors and warnings)
# quiet_success = false

# Treat recoverable warnings as errors (e.g. files with no ASP tags)
# strict = false

# Warnings to ignore (e.g. no-asp-tags, empty-file)
# ignore_warnings = ["no-asp-tags"]

# Comma-separated glob patterns to exclude (extends default exclusions)
# exclude = "backup/**,*.tmp"

# Replace default exclusions instead of extending them
# replace_exclude = false
`
