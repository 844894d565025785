package config

import (
	"fmt"
	"os"
	"path/filepath"

	"promptbox/types"

	"gopkg.in/yaml.v2"
)

const (
	appDirName     = ".promptbox"
	configFilePath = ".promptbox/config.yaml"
	backupFilePath = ".promptbox/config.yaml.bak"
)

// AppConfig is the on-disk application configuration.
type AppConfig struct {
	Endpoint    string            `yaml:"endpoint"`
	Defaults    types.ModelConfig `yaml:"defaults"`
	Preferences types.Preferences `yaml:"preferences"`
}

// DefaultAppConfig returns the configuration written on first run.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Endpoint: "http://127.0.0.1:8000/api/predict",
		Defaults: types.DefaultConfig(),
		Preferences: types.Preferences{
			SaveHistory:      true,
			MaxHistoryItems:  50,
			RevealIntervalMs: 20,
		},
	}
}

// FullFilePath resolves a path relative to the user home directory.
func FullFilePath(relative string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, relative), nil
}

// LoadAppConfig reads the config file, creating it with defaults when absent.
func LoadAppConfig() (AppConfig, error) {
	fullPath, err := FullFilePath(configFilePath)
	if err != nil {
		return AppConfig{}, err
	}

	data, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		cfg := DefaultAppConfig()
		if err := SaveAppConfig(cfg); err != nil {
			return AppConfig{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	applyFallbacks(&cfg)
	return cfg, nil
}

func applyFallbacks(cfg *AppConfig) {
	def := DefaultAppConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Defaults == (types.ModelConfig{}) {
		cfg.Defaults = def.Defaults
	}
	if cfg.Preferences.RevealIntervalMs <= 0 {
		cfg.Preferences.RevealIntervalMs = def.Preferences.RevealIntervalMs
	}
}

// SaveAppConfig writes the config file, keeping the previous version as an
// automatic backup for `promptbox config revert`.
func SaveAppConfig(cfg AppConfig) error {
	fullPath, err := FullFilePath(configFilePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
		return err
	}

	if existing, err := os.ReadFile(fullPath); err == nil {
		backupPath, err := FullFilePath(backupFilePath)
		if err == nil {
			os.WriteFile(backupPath, existing, 0600)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResetAppConfigToDefault overwrites the config file with defaults.
func ResetAppConfigToDefault() error {
	return SaveAppConfig(DefaultAppConfig())
}

// RevertAppConfigToBackup restores the last automatic backup.
func RevertAppConfigToBackup() error {
	backupPath, err := FullFilePath(backupFilePath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("no backup available: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("backup is not valid config: %w", err)
	}

	fullPath, err := FullFilePath(configFilePath)
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0600)
}

// DataDir returns the directory holding the history database, creating it if
// needed.
func DataDir() (string, error) {
	dir, err := FullFilePath(appDirName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
