// Package config loads CLI configuration from ~/.vigil/config.yaml, the
// VIGIL_* environment, and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all settings the CLI honors.
type Config struct {
	// APIBaseURL is the versioned API root of the platform.
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`

	// Timeout is the HTTP timeout applied to every request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// MaxRPS caps outbound request rate (0 = unlimited).
	MaxRPS float64 `mapstructure:"max_rps" yaml:"max_rps"`

	// ProxyURL routes API traffic through an HTTP or SOCKS5 proxy.
	ProxyURL string `mapstructure:"proxy_url" yaml:"proxy_url,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`

	// DataDir holds the session database and other local state.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// OutputFormat is the default render format (text or json).
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// WatchInterval is the polling cadence for scan watching.
	WatchInterval time.Duration `mapstructure:"watch_interval" yaml:"watch_interval"`

	// LogLevel controls diagnostic verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// LogFile, when set, duplicates diagnostics to a rotated file.
	LogFile string `mapstructure:"log_file" yaml:"log_file,omitempty"`
}

// Dir returns the configuration directory, ~/.vigil.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".vigil"), nil
}

// File returns the path of the configuration file.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	dir, err := Dir()
	if err != nil {
		dir = ".vigil"
	}
	return &Config{
		APIBaseURL:    "http://localhost:8000/api/v1",
		Timeout:       30 * time.Second,
		MaxRPS:        0,
		DataDir:       dir,
		OutputFormat:  "text",
		WatchInterval: 3 * time.Second,
		LogLevel:      "info",
	}
}

// Load reads the configuration. Values come from the config file when it
// exists, overridden by VIGIL_* environment variables. A missing file is
// not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VIGIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := File()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to the configuration file atomically, creating the
// directory on first use.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path, err := File()
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmp, path)
}

// SessionDBPath returns the location of the session database inside the
// data directory.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("api_base_url", def.APIBaseURL)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("max_rps", def.MaxRPS)
	v.SetDefault("proxy_url", def.ProxyURL)
	v.SetDefault("insecure_skip_verify", def.InsecureSkipVerify)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("output_format", def.OutputFormat)
	v.SetDefault("watch_interval", def.WatchInterval)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
}
