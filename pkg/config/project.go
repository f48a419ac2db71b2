package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectConfig is the per-project configuration stored in
// ./.parley/config.json. It currently carries only the permission
// allow-lists consulted by the permission manager; "always allow" grants
// append to these lists and are persisted immediately.
type ProjectConfig struct {
	Permissions ProjectPermissions `json:"permissions"`
}

type ProjectPermissions struct {
	FileOperations   FileOperationRules    `json:"file_operations"`
	CommandExecution CommandExecutionRules `json:"command_execution"`
}

type FileOperationRules struct {
	AlwaysAllow []string `json:"always_allow"`
}

type CommandExecutionRules struct {
	AllowedPaths []string `json:"allowed_paths"`
}

func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Permissions: ProjectPermissions{
			FileOperations:   FileOperationRules{AlwaysAllow: []string{"."}},
			CommandExecution: CommandExecutionRules{AllowedPaths: []string{"."}},
		},
	}
}

func ProjectDir(root string) string {
	return filepath.Join(root, ".parley")
}

func ProjectConfigPath(root string) string {
	return filepath.Join(ProjectDir(root), "config.json")
}

// LoadProjectConfig reads the project config under root, returning
// defaults when no file exists.
func LoadProjectConfig(root string) (*ProjectConfig, error) {
	path := ProjectConfigPath(root)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProjectConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultProjectConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config %s: %w", path, err)
	}
	return cfg, nil
}

func SaveProjectConfig(root string, cfg *ProjectConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(ProjectDir(root), 0o755); err != nil {
		return err
	}

	return os.WriteFile(ProjectConfigPath(root), data, 0o600)
}
