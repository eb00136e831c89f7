package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"protodex/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "protodex" // application name used for config directory

// EnvProtocolsDir overrides every other source of the protocols directory.
const EnvProtocolsDir = "PROTODEX_PROTOCOLS_DIR"

// Config holds user configuration for protodex.
type Config struct {
	// ProtocolsDir is the directory containing the protocol markdown corpus.
	ProtocolsDir string `yaml:"protocols_dir"`
	Version      string `yaml:"version"`   // Track config version
	InitTime     int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location. If no config file exists
// a default config is returned so the server can run without prior setup.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		cfg := DefaultConfig()
		return &cfg, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// DefaultConfig returns a Config with sensible defaults. The protocols
// directory defaults to ./protocols relative to the working directory.
func DefaultConfig() Config {
	dir := "protocols"
	if cwd, err := os.Getwd(); err == nil {
		dir = filepath.Join(cwd, "protocols")
	}

	return Config{
		ProtocolsDir: dir,
		Version:      "1.0",
		InitTime:     0, // Will be set during first save
	}
}

// ResolveProtocolsDir applies the precedence order for locating the corpus:
// environment variable, explicit flag value, config file, built-in default.
func (c *Config) ResolveProtocolsDir(flagValue string) string {
	if env := os.Getenv(EnvProtocolsDir); env != "" {
		logging.Debug("Protocols dir from environment", "dir", env)
		return env
	}
	if flagValue != "" {
		return flagValue
	}
	if c != nil && c.ProtocolsDir != "" {
		return c.ProtocolsDir
	}
	return DefaultConfig().ProtocolsDir
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Set init time if this is the first save
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
