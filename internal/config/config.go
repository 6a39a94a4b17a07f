package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/taskflowhq/taskflow-cli/internal/session"
)

type Config struct {
	API     APIConfig
	Server  ServerConfig
	Session SessionConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port     int
	Database string
}

type SessionConfig struct {
	Path string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		Server: ServerConfig{
			Port:     8000,
			Database: filepath.Join(defaultDataDir(), "taskflow.db"),
		},
		Session: SessionConfig{
			Path: session.DefaultPath(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration in ascending precedence: built-in defaults, the
// JSON config file at $XDG_CONFIG_HOME/taskflow/config.json, then TASKFLOW_*
// environment variables. A .env file in the working directory is loaded
// first so the env overrides work in development too.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "taskflow-data"
		}
	}
	return filepath.Join(dir, "taskflow")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "taskflow", "config.json")
}
