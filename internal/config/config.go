package config

import (
	"errors"
	"os"
	"strings"

	"github.com/quocvuong92/helios/internal/constants"
)

// Environment variable names
const (
	EnvAPIKeys = "HELIOS_API_KEY"
	EnvBaseURL = "HELIOS_BASE_URL"
	EnvModel   = "HELIOS_MODEL"
	EnvModels  = "HELIOS_MODELS"

	// Git identity used for commits when the repository config has none
	EnvGitAuthorName  = "HELIOS_GIT_AUTHOR_NAME"
	EnvGitAuthorEmail = "HELIOS_GIT_AUTHOR_EMAIL"
)

// Defaults - re-exported from constants for convenience
const (
	DefaultModel         = constants.DefaultModel
	DefaultBaseURL       = constants.DefaultBaseURL
	DefaultSystemMessage = constants.DefaultSystemMessage
	DefaultRemote        = constants.DefaultRemote
)

// DefaultAPITimeout - re-exported from constants for convenience
const DefaultAPITimeout = constants.DefaultAPITimeout

// DefaultModels - re-exported from constants for convenience
var DefaultModels = constants.DefaultModels

// Errors
var (
	ErrAPIKeyNotFound  = errors.New("API key not found. Set HELIOS_API_KEY environment variable or api_keys in config.yaml")
	ErrInvalidModel    = errors.New("invalid model specified")
	ErrNoAvailableKeys = errors.New("all API keys exhausted")
)

// RotatableErrorCodes are status codes that should trigger key rotation
var RotatableErrorCodes = []int{401, 403, 429}

// KeyRotator manages a pool of API keys with rotation support
type KeyRotator struct {
	keys       []string
	currentIdx int
	currentKey string
}

// NewKeyRotator creates a new KeyRotator from an environment variable
func NewKeyRotator(envVar string) *KeyRotator {
	return NewKeyRotatorFromKeys(splitList(os.Getenv(envVar)))
}

// NewKeyRotatorFromKeys creates a KeyRotator from an explicit key list
func NewKeyRotatorFromKeys(keys []string) *KeyRotator {
	var cleaned []string
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key != "" {
			cleaned = append(cleaned, key)
		}
	}
	kr := &KeyRotator{keys: cleaned}
	if len(cleaned) > 0 {
		kr.currentKey = cleaned[0]
	}
	return kr
}

// GetCurrentKey returns the current active API key
func (kr *KeyRotator) GetCurrentKey() string {
	return kr.currentKey
}

// GetKeyCount returns the total number of keys
func (kr *KeyRotator) GetKeyCount() int {
	return len(kr.keys)
}

// GetCurrentIndex returns the current key index (0-based)
func (kr *KeyRotator) GetCurrentIndex() int {
	return kr.currentIdx
}

// HasKeys returns true if there are any keys configured
func (kr *KeyRotator) HasKeys() bool {
	return len(kr.keys) > 0
}

// Rotate moves to the next available API key
func (kr *KeyRotator) Rotate() (string, error) {
	nextIndex := kr.currentIdx + 1
	if nextIndex >= len(kr.keys) {
		return "", ErrNoAvailableKeys
	}
	kr.currentIdx = nextIndex
	kr.currentKey = kr.keys[nextIndex]
	return kr.currentKey, nil
}

// splitList splits a comma-separated value, dropping empty entries
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// Config holds the application configuration
type Config struct {
	// API settings
	BaseURL         string
	APIKeys         *KeyRotator
	Model           string
	AvailableModels []string
	SystemMessage   string

	// Git settings
	GitAuthorName  string
	GitAuthorEmail string
	GitRemote      string

	// Context files passed with --file
	Files []string

	// Flags
	Stream      bool
	Render      bool
	ShowDiff    bool
	AutoApply   bool
	Interactive bool
	Debug       bool

	fileKeys []string
}

// NewConfig creates a new Config with defaults
func NewConfig() *Config {
	return &Config{}
}

// Validate fills the configuration from the config file and environment.
// Priority: flags > environment > config file > defaults.
func (c *Config) Validate() error {
	if fileConfig, err := LoadConfigFile(); err == nil {
		c.ApplyFileConfig(fileConfig)
	}
	// Errors loading config file are silently ignored - env vars and flags take precedence

	if envURL := os.Getenv(EnvBaseURL); envURL != "" {
		c.BaseURL = envURL
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	keys := splitList(os.Getenv(EnvAPIKeys))
	if len(keys) == 0 {
		keys = c.fileKeys
	}
	c.APIKeys = NewKeyRotatorFromKeys(keys)

	if models := splitList(os.Getenv(EnvModels)); len(models) > 0 {
		c.AvailableModels = models
	}
	if len(c.AvailableModels) == 0 {
		c.AvailableModels = DefaultModels
	}

	if c.Model == "" {
		c.Model = os.Getenv(EnvModel)
	}
	if c.Model == "" {
		c.Model = c.AvailableModels[0]
	}
	if !c.ValidateModel(c.Model) {
		return ErrInvalidModel
	}

	if c.SystemMessage == "" {
		c.SystemMessage = DefaultSystemMessage
	}

	if name := os.Getenv(EnvGitAuthorName); name != "" {
		c.GitAuthorName = name
	}
	if email := os.Getenv(EnvGitAuthorEmail); email != "" {
		c.GitAuthorEmail = email
	}
	if c.GitRemote == "" {
		c.GitRemote = DefaultRemote
	}

	return nil
}

// RequireAPIKey returns ErrAPIKeyNotFound when no key is configured
func (c *Config) RequireAPIKey() error {
	if c.APIKeys == nil || !c.APIKeys.HasKeys() {
		return ErrAPIKeyNotFound
	}
	return nil
}

// GetChatCompletionsURL builds the full API URL for chat completions
func (c *Config) GetChatCompletionsURL() string {
	return c.BaseURL + "/chat/completions"
}

// ValidateModel checks if the given model is in available models
func (c *Config) ValidateModel(model string) bool {
	if len(c.AvailableModels) == 0 {
		return true // No validation if models not configured
	}
	for _, m := range c.AvailableModels {
		if m == model {
			return true
		}
	}
	return false
}

// GetAvailableModelsString returns a formatted string of available models
func (c *Config) GetAvailableModelsString() string {
	if len(c.AvailableModels) == 0 {
		return "(not configured - set HELIOS_MODELS)"
	}
	return strings.Join(c.AvailableModels, ", ")
}
