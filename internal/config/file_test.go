package config

import (
	"os"
	"path/filepath"
	"testing"
)

// createTempConfigFile creates a temporary config file for testing
func createTempConfigFile(t *testing.T, dir, content string) string {
	t.Helper()

	configDir := filepath.Join(dir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	return configPath
}

// =============================================================================
// loadConfigFromPath Tests
// =============================================================================

func TestLoadConfigFromPath_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
base_url: http://localhost:11434/v1
api_keys:
  - key-a
  - key-b
model: gpt-4o
models:
  - gpt-4o
  - gpt-4.1

git:
  author_name: Jane Doe
  author_email: jane@example.com
  remote: upstream

defaults:
  stream: true
  show_diff: true
`
	configPath := createTempConfigFile(t, tmpDir, configContent)

	cfg, err := loadConfigFromPath(configPath)
	if err != nil {
		t.Fatalf("loadConfigFromPath() error = %v", err)
	}

	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if len(cfg.APIKeys) != 2 {
		t.Errorf("APIKeys length = %d, want 2", len(cfg.APIKeys))
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4o")
	}
	if cfg.Git == nil || cfg.Git.Remote != "upstream" {
		t.Errorf("Git.Remote not loaded: %+v", cfg.Git)
	}
	if cfg.Defaults == nil || !cfg.Defaults.Stream || !cfg.Defaults.ShowDiff || cfg.Defaults.AutoApply {
		t.Errorf("Defaults not loaded correctly: %+v", cfg.Defaults)
	}
}

func TestLoadConfigFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := createTempConfigFile(t, tmpDir, "model: [unclosed")

	if _, err := loadConfigFromPath(configPath); err == nil {
		t.Error("loadConfigFromPath() should return error for invalid YAML")
	}
}

func TestLoadConfigFromPath_NotFound(t *testing.T) {
	if _, err := loadConfigFromPath("/nonexistent/path/config.yaml"); err == nil {
		t.Error("loadConfigFromPath() should return error for non-existent file")
	}
}

// =============================================================================
// LoadConfigFile Tests
// =============================================================================

func TestLoadConfigFile_NoConfigFile(t *testing.T) {
	runInTempDir(t)

	cfg, err := LoadConfigFile()
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if cfg == nil {
		t.Error("LoadConfigFile() should return non-nil config even when no file exists")
	}
}

func TestLoadConfigFile_CurrentDirectory(t *testing.T) {
	dir := runInTempDir(t)
	createTempConfigFile(t, dir, `model: gpt-4o`)

	cfg, err := LoadConfigFile()
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4o")
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := GetConfigPaths()

	if len(paths) == 0 {
		t.Fatal("GetConfigPaths() should return at least one path")
	}
	if paths[0] != filepath.Join(".", ProjectConfigDir, ConfigFileName) {
		t.Errorf("First path = %q, want current directory path", paths[0])
	}
	for i, p := range paths {
		if filepath.Base(p) != ConfigFileName {
			t.Errorf("Path %d = %q, should end with %q", i, p, ConfigFileName)
		}
	}
}

// =============================================================================
// ApplyFileConfig Tests
// =============================================================================

func TestConfig_ApplyFileConfig_Nil(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyFileConfig(nil)

	if cfg.Model != "" || cfg.BaseURL != "" {
		t.Error("ApplyFileConfig(nil) should not modify config")
	}
}

func TestConfig_ApplyFileConfig_NoOverwrite(t *testing.T) {
	cfg := NewConfig()
	cfg.Model = "flag-model"
	cfg.GitRemote = "flag-remote"

	cfg.ApplyFileConfig(&FileConfig{
		Model: "file-model",
		Git:   &GitConfig{Remote: "file-remote", AuthorName: "File Author"},
	})

	if cfg.Model != "flag-model" {
		t.Errorf("Model = %q, flag value should win", cfg.Model)
	}
	if cfg.GitRemote != "flag-remote" {
		t.Errorf("GitRemote = %q, flag value should win", cfg.GitRemote)
	}
	if cfg.GitAuthorName != "File Author" {
		t.Errorf("GitAuthorName = %q, want file value", cfg.GitAuthorName)
	}
}

func TestConfig_ApplyFileConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyFileConfig(&FileConfig{
		Defaults: &DefaultsConfig{Stream: true, Render: true, ShowDiff: true, AutoApply: true},
	})

	if !cfg.Stream || !cfg.Render || !cfg.ShowDiff || !cfg.AutoApply {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestConfig_ApplyFileConfig_DefaultsFalseKeepsFlags(t *testing.T) {
	cfg := NewConfig()
	cfg.AutoApply = true
	cfg.ApplyFileConfig(&FileConfig{Defaults: &DefaultsConfig{}})

	if !cfg.AutoApply {
		t.Error("false default must not clear a flag set on the command line")
	}
}

// =============================================================================
// CreateDefaultConfigFile Tests
// =============================================================================

func TestCreateDefaultConfigFile_Success(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	path, err := CreateDefaultConfigFile()
	if err != nil {
		t.Fatalf("CreateDefaultConfigFile() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read created config file: %v", err)
	}
	if len(content) == 0 {
		t.Error("Created config file is empty")
	}

	// Every line is commented out, so the file must parse to an empty config
	cfg, err := loadConfigFromPath(path)
	if err != nil {
		t.Fatalf("default config should be valid YAML: %v", err)
	}
	if cfg.Model != "" {
		t.Errorf("default config should not set a model, got %q", cfg.Model)
	}
}

func TestCreateDefaultConfigFile_AlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "helios")
	os.MkdirAll(configDir, 0755)
	os.WriteFile(filepath.Join(configDir, ConfigFileName), []byte("existing content"), 0644)

	if _, err := CreateDefaultConfigFile(); err == nil {
		t.Error("CreateDefaultConfigFile() should return error when file exists")
	}
}
