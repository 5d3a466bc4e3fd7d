package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quocvuong92/helios/internal/constants"
)

// ConfigFileName is the name of the config file
const ConfigFileName = "config.yaml"

// ProjectConfigDir is the directory name for project-level config
const ProjectConfigDir = "." + constants.AppName

// FileConfig represents the configuration file structure
type FileConfig struct {
	// API settings
	BaseURL       string   `yaml:"base_url,omitempty"`
	APIKeys       []string `yaml:"api_keys,omitempty"`
	Model         string   `yaml:"model,omitempty"`
	Models        []string `yaml:"models,omitempty"`
	SystemMessage string   `yaml:"system_message,omitempty"`

	// Git settings
	Git *GitConfig `yaml:"git,omitempty"`

	// Default flags
	Defaults *DefaultsConfig `yaml:"defaults,omitempty"`
}

// GitConfig holds commit identity and push settings
type GitConfig struct {
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
	Remote      string `yaml:"remote,omitempty"`
}

// DefaultsConfig holds default flag values
type DefaultsConfig struct {
	Stream    bool `yaml:"stream,omitempty"`
	Render    bool `yaml:"render,omitempty"`
	ShowDiff  bool `yaml:"show_diff,omitempty"`
	AutoApply bool `yaml:"auto_apply,omitempty"`
}

// GetConfigPaths returns the paths to check for config files (in order of priority)
func GetConfigPaths() []string {
	var paths []string

	// 1. Current directory
	paths = append(paths, filepath.Join(".", ProjectConfigDir, ConfigFileName))

	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, constants.AppName, ConfigFileName))
	}

	// 3. Home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", constants.AppName, ConfigFileName))
	}

	return paths
}

// LoadConfigFile attempts to load configuration from a file
func LoadConfigFile() (*FileConfig, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return loadConfigFromPath(path)
		}
	}

	// No config file found, return empty config
	return &FileConfig{}, nil
}

// loadConfigFromPath loads config from a specific path
func loadConfigFromPath(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyFileConfig applies file configuration to the main Config
// File config has lower priority than environment variables and CLI flags
func (c *Config) ApplyFileConfig(fc *FileConfig) {
	if fc == nil {
		return
	}

	if c.BaseURL == "" && fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if len(fc.APIKeys) > 0 {
		c.fileKeys = fc.APIKeys
	}
	if c.Model == "" && fc.Model != "" {
		c.Model = fc.Model
	}
	if len(fc.Models) > 0 && len(c.AvailableModels) == 0 {
		c.AvailableModels = fc.Models
	}
	if c.SystemMessage == "" && fc.SystemMessage != "" {
		c.SystemMessage = fc.SystemMessage
	}

	if fc.Git != nil {
		if c.GitAuthorName == "" {
			c.GitAuthorName = fc.Git.AuthorName
		}
		if c.GitAuthorEmail == "" {
			c.GitAuthorEmail = fc.Git.AuthorEmail
		}
		if c.GitRemote == "" {
			c.GitRemote = fc.Git.Remote
		}
	}

	// Since we can't distinguish between "flag not set" and "flag set to false",
	// we apply defaults only for "true" values in the config file
	if fc.Defaults != nil {
		if fc.Defaults.Stream {
			c.Stream = true
		}
		if fc.Defaults.Render {
			c.Render = true
		}
		if fc.Defaults.ShowDiff {
			c.ShowDiff = true
		}
		if fc.Defaults.AutoApply {
			c.AutoApply = true
		}
	}
}

// CreateDefaultConfigFile creates a default config file at the user config directory
func CreateDefaultConfigFile() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, constants.AppName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	}

	defaultConfig := `# Helios Configuration
# Location: ~/.config/helios/config.yaml

# OpenAI-compatible endpoint (default: https://api.openai.com/v1)
# base_url: https://api.openai.com/v1

# API keys, rotated on 401/403/429 (HELIOS_API_KEY overrides)
# api_keys:
#   - sk-your-key

# Default model and the models accepted by /model
# model: gpt-4.1
# models:
#   - gpt-4.1
#   - gpt-4o
#   - gpt-5-mini

# Commit identity and push remote
# git:
#   author_name: Your Name
#   author_email: you@example.com
#   remote: origin

# Default flags
# defaults:
#   stream: true
#   render: true
#   show_diff: true
#   auto_apply: false
`

	if err := os.WriteFile(path, []byte(defaultConfig), 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}
