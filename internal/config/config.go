package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultNcnnTool is the upscaler binary used to probe Vulkan devices.
const DefaultNcnnTool = "waifu2x-ncnn-vulkan"

// Config holds backend configuration loaded from ~/.vidassist/config.yaml.
type Config struct {
	APIAddr   string `yaml:"api_addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" | "json"

	// FSScope lists the directories the fs plugin may touch.
	FSScope []string `yaml:"fs_scope"`

	// ShellAllow maps the program names the front end may execute to the
	// binaries actually run, e.g. ffmpeg: /opt/homebrew/bin/ffmpeg.
	ShellAllow map[string]string `yaml:"shell_allow"`

	NcnnTool string `yaml:"ncnn_tool"`
}

// Home returns the vidassist home directory (~/.vidassist).
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vidassist"), nil
}

// DefaultPath returns the default config file path: ~/.vidassist/config.yaml.
func DefaultPath() string {
	dir, err := Home()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns the defaults and no error. An empty or all-comment file
// also returns the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.NcnnTool == "" {
		c.NcnnTool = DefaultNcnnTool
	}
	if c.ShellAllow == nil {
		c.ShellAllow = map[string]string{}
	}
}

// Validate checks field values without touching the file system.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format: must be text or json, got %q", c.LogFormat)
	}
	for i, dir := range c.FSScope {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("fs_scope[%d]: %q is not an absolute path", i, dir)
		}
	}
	for alias, program := range c.ShellAllow {
		if alias == "" || strings.ContainsAny(alias, `/\`) {
			return fmt.Errorf("shell_allow: invalid alias %q", alias)
		}
		if program == "" {
			return fmt.Errorf("shell_allow.%s: empty program", alias)
		}
	}
	return nil
}
