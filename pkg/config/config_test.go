package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultModel, cfg.DefaultModel)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1.0, cfg.RetryInitialDelay)
	assert.Equal(t, 2.0, cfg.RetryBackoffFactor)
	assert.Equal(t, 10, cfg.MaxToolIterations)
	assert.Equal(t, 50, cfg.HistorySize)
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.DefaultModel)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"default_model": "openai/gpt-4", "temperature": 0.2, "max_retries": 5}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4", cfg.DefaultModel)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2.0, cfg.RetryBackoffFactor, "untouched keys keep defaults")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"api_key": "from-file", "default_model": "openai/gpt-4"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("OPENROUTER_API_KEY", "from-env")
	t.Setenv("PARLEY_MODEL", "anthropic/claude-3.5-sonnet")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", cfg.DefaultModel)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.APIKey = "sk-or-test"
	cfg.SetModel("thinking", "anthropic/claude-3-opus")
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-test", loaded.APIKey)
	assert.Equal(t, "anthropic/claude-3-opus", loaded.GetModel("thinking"))
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.APIKey = "sk-or-test"
	assert.NoError(t, cfg.Validate())
}

func TestSetModel_DefaultTaskUpdatesDefaultModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetModel("default", "openai/gpt-4")

	assert.Equal(t, "openai/gpt-4", cfg.DefaultModel)
	assert.Equal(t, "openai/gpt-4", cfg.GetModel("default"))
	assert.Equal(t, "openai/gpt-4", cfg.GetModel("unknown-task"), "unknown task falls back to default")
}

func TestResolveRuntimePaths_ExplicitConfig(t *testing.T) {
	t.Setenv(EnvParleyConfig, "/tmp/custom/parley.json")
	t.Setenv(EnvParleyHome, "")

	paths := ResolveRuntimePaths()
	assert.Equal(t, "/tmp/custom/parley.json", paths.ConfigPath)
	assert.Equal(t, "/tmp/custom", paths.HomeDir)
}

func TestResolveRuntimePaths_HomeOverride(t *testing.T) {
	t.Setenv(EnvParleyConfig, "")
	t.Setenv(EnvParleyHome, "/tmp/parley-home")

	paths := ResolveRuntimePaths()
	assert.Equal(t, "/tmp/parley-home", paths.HomeDir)
	assert.Equal(t, filepath.Join("/tmp/parley-home", "config.json"), paths.ConfigPath)
	assert.Equal(t, filepath.Join("/tmp/parley-home", "sessions"), paths.SessionsDir)
	assert.Equal(t, filepath.Join("/tmp/parley-home", "history.db"), paths.HistoryPath)
	assert.Equal(t, filepath.Join("/tmp/parley-home", "agents"), paths.AgentsDir)
}

func TestProjectConfig_DefaultsWhenMissing(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, cfg.Permissions.FileOperations.AlwaysAllow)
	assert.Equal(t, []string{"."}, cfg.Permissions.CommandExecution.AllowedPaths)
}

func TestProjectConfig_SaveLoad(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultProjectConfig()
	cfg.Permissions.FileOperations.AlwaysAllow = append(
		cfg.Permissions.FileOperations.AlwaysAllow, "docs")
	require.NoError(t, SaveProjectConfig(root, cfg))

	loaded, err := LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Equal(t, []string{".", "docs"}, loaded.Permissions.FileOperations.AlwaysAllow)
}
