package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvParleyConfig = "PARLEY_CONFIG"
	EnvParleyHome   = "PARLEY_HOME"
)

type RuntimePaths struct {
	HomeDir         string
	ConfigPath      string
	SessionsDir     string
	HistoryPath     string
	AgentsDir       string
	LineHistoryPath string
}

func ResolveRuntimePaths() RuntimePaths {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvParleyConfig))); configPath != "" {
		return buildRuntimePaths(filepath.Dir(configPath), configPath)
	}

	homeDir := expandHome(strings.TrimSpace(os.Getenv(EnvParleyHome)))
	if homeDir == "" {
		homeDir = defaultParleyHome()
	}

	return buildRuntimePaths(homeDir, filepath.Join(homeDir, "config.json"))
}

func defaultParleyHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".parley"
	}
	return filepath.Join(home, ".parley")
}

func buildRuntimePaths(homeDir, configPath string) RuntimePaths {
	return RuntimePaths{
		HomeDir:         homeDir,
		ConfigPath:      configPath,
		SessionsDir:     filepath.Join(homeDir, "sessions"),
		HistoryPath:     filepath.Join(homeDir, "history.db"),
		AgentsDir:       filepath.Join(homeDir, "agents"),
		LineHistoryPath: filepath.Join(homeDir, "readline_history"),
	}
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
