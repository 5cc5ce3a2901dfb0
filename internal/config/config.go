// Package config provides configuration management for the clipvault client.
// It handles loading and parsing the YAML configuration file and provides
// structured access to application settings including the callback port,
// request timeouts, data directory, and logging behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/clipvault/clipvault/internal/constant"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// DataDir is where non-secret client state lives: the destination list
	// and, when enabled, log files. Defaults to ~/.clipvault.
	DataDir string `yaml:"data-dir"`

	// CallbackPort is the loopback port the OAuth redirect listener binds.
	CallbackPort int `yaml:"callback-port"`

	// RequestTimeoutSeconds bounds every outbound HTTP request. Its expiry
	// surfaces as a normal request failure, never specially recovered.
	RequestTimeoutSeconds int `yaml:"request-timeout-seconds"`

	// LoggingToFile switches log output from stdout to a rotating file under
	// DataDir/logs.
	LoggingToFile bool `yaml:"logging-to-file"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".clipvault", "config.yaml")
}

// Load reads the configuration from path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err = yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".clipvault")
		} else {
			c.DataDir = "."
		}
	}
	if c.CallbackPort <= 0 {
		c.CallbackPort = constant.DefaultCallbackPort
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 30
	}
}

// RedirectURI returns the loopback redirect URI registered for this client,
// derived from the configured callback port.
func (c *Config) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", c.CallbackPort, constant.CallbackPath)
}

// DestinationsPath returns the path of the destination list file.
func (c *Config) DestinationsPath() string {
	return filepath.Join(c.DataDir, "destinations.json")
}

// LogDir returns the directory used for log files.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}
