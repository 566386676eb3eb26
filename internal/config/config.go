// Package config loads application settings from a config.toml next to the
// executable, with defaults for everything.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig application configuration.
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig storage locations, relative to the executable directory.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ImportConfig import policy settings.
type ImportConfig struct {
	// ReasonKeywords project-cell values treated as non-project time
	// explanations and routed to the Internal project.
	ReasonKeywords []string `toml:"reason_keywords"`
	// InternalProjectName display name of the synthetic Internal project.
	InternalProjectName string `toml:"internal_project_name"`
}

// LogConfig logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig the built-in defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20270,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Import: ImportConfig{
			ReasonKeywords: []string{
				"leave", "annual leave", "sick leave", "public holiday",
				"admin", "training", "bench", "internal",
			},
			InternalProjectName: "Internal",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadFrom reads configuration from an explicit path, layering it over the
// defaults. A missing file is not an error.
func LoadFrom(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads config.toml from the executable directory.
func LoadConfig() (*AppConfig, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	cfg, err := LoadFrom(filepath.Join(exeDir, "config.toml"))
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("PULSEBOARD_DATA_DIR"); v != "" {
		cfg.Data.DataDir = v
	}
	return cfg, nil
}

// SaveConfig writes config.toml next to the executable.
func SaveConfig(cfg *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// EnsureDataDir creates the data directory (and its exports subdirectory)
// under the executable directory and returns its absolute path.
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dataDir := cfg.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	for _, dir := range []string{dataDir, filepath.Join(dataDir, "exports")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return dataDir, nil
}
