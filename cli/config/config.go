// Package config provides configuration management for the StaticMagic CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Version is the config file format version
const Version = "1"

// Config represents the CLI configuration file
type Config struct {
	// Version of the config file format
	Version string `yaml:"version"`

	// CurrentProfile is the active profile name
	CurrentProfile string `yaml:"current_profile"`

	// Profiles is a map of profile name to profile configuration
	Profiles map[string]*Profile `yaml:"profiles"`

	// Defaults for all commands
	Defaults Defaults `yaml:"defaults,omitempty"`
}

// Profile represents a named configuration profile
type Profile struct {
	// Name is the profile identifier (e.g., "dev", "staging", "prod")
	Name string `yaml:"name"`

	// Server is the StaticMagic server URL
	Server string `yaml:"server"`

	// OutputFormat default for this profile
	OutputFormat string `yaml:"output_format,omitempty"`
}

// Defaults contains default settings for commands
type Defaults struct {
	// Output format: table, json, yaml
	Output string `yaml:"output,omitempty"`

	// NoHeaders suppresses table headers
	NoHeaders bool `yaml:"no_headers,omitempty"`

	// Quiet mode for minimal output
	Quiet bool `yaml:"quiet,omitempty"`
}

// DefaultConfigDir returns the default config directory path
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".staticmagic"
	}
	return filepath.Join(home, ".staticmagic")
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// New creates a new empty configuration
func New() *Config {
	return &Config{
		Version:  Version,
		Profiles: make(map[string]*Profile),
		Defaults: Defaults{
			Output: "table",
		},
	}
}

// Load reads configuration from the specified path
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s - run 'staticmagic config init' to create one", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}

	return &cfg, nil
}

// LoadOrCreate reads configuration or creates a new one if it doesn't exist
func LoadOrCreate(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg, err := Load(path)
	if err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return New(), nil
		}
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Ensure directory exists with restricted permissions
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with 0600 permissions (owner read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetProfile returns the named profile or the current profile if name is empty
func (c *Config) GetProfile(name string) (*Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}

	if name == "" {
		return nil, fmt.Errorf("no profile specified and no current profile set")
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}

	return profile, nil
}

// SetProfile adds or updates a profile
func (c *Config) SetProfile(profile *Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}
	c.Profiles[profile.Name] = profile
}

// DeleteProfile removes a profile
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' not found", name)
	}

	delete(c.Profiles, name)

	// If we deleted the current profile, clear it
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
		// Set to first available profile if any
		for pName := range c.Profiles {
			c.CurrentProfile = pName
			break
		}
	}

	return nil
}

// ListProfiles returns a list of all profile names
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	return names
}
