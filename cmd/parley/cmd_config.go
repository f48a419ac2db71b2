package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/utils"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd(), newConfigResetCmd(), newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, paths, err := loadUserConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Configuration (%s):\n", paths.ConfigPath)
	fmt.Printf("  %-22s %s\n", "api_key", maskAPIKey(cfg.APIKey))
	fmt.Printf("  %-22s %s\n", "base_url", cfg.BaseURL)
	fmt.Printf("  %-22s %s\n", "default_model", cfg.DefaultModel)
	for _, task := range slices.Sorted(maps.Keys(cfg.Models)) {
		fmt.Printf("  %-22s %s\n", "models."+task, cfg.Models[task])
	}
	fmt.Printf("  %-22s %s\n", "system_prompt", utils.Truncate(cfg.SystemPrompt, 60))
	fmt.Printf("  %-22s %g\n", "temperature", cfg.Temperature)
	fmt.Printf("  %-22s %d\n", "max_tokens", cfg.MaxTokens)
	fmt.Printf("  %-22s %d\n", "timeout", cfg.TimeoutSeconds)
	fmt.Printf("  %-22s %d\n", "history_size", cfg.HistorySize)
	fmt.Printf("  %-22s %d\n", "max_retries", cfg.MaxRetries)
	fmt.Printf("  %-22s %g\n", "retry_initial_delay", cfg.RetryInitialDelay)
	fmt.Printf("  %-22s %g\n", "retry_backoff_factor", cfg.RetryBackoffFactor)
	fmt.Printf("  %-22s %d\n", "max_tool_iterations", cfg.MaxToolIterations)
	fmt.Printf("  %-22s %d\n", "requests_per_minute", cfg.RequestsPerMinute)
	for _, prefix := range slices.Sorted(maps.Keys(cfg.ModelCapabilities)) {
		fmt.Printf("  %-22s %t\n", "model_capabilities."+prefix, cfg.ModelCapabilities[prefix])
	}
	fmt.Printf("  %-22s %s\n", "log_level", cfg.LogLevel)
	fmt.Printf("  %-22s %s\n", "log_file", cfg.LogFile)
	return nil
}

// maskAPIKey hides all but the last four characters.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// configKeys enumerates the JSON keys of the config struct, so set
// validates against the same names the file uses.
func configKeys() []string {
	t := reflect.TypeOf(config.Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by its JSON key, for example:

  parley config set default_model anthropic/claude-sonnet-4
  parley config set temperature 0.2
  parley config set max_tokens 4096`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	}
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if !slices.Contains(configKeys(), key) {
		return fmt.Errorf("unknown config key %q (see 'parley config show')", key)
	}

	cfg, paths, err := loadUserConfig()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	// numbers, booleans and objects parse as JSON; everything else is a string
	var typed any
	if err := json.Unmarshal([]byte(value), &typed); err != nil {
		typed = value
	}
	fields[key] = typed

	raw, err = json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	var updated config.Config
	if err := json.Unmarshal(raw, &updated); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := config.SaveConfig(paths.ConfigPath, &updated); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("✓ Set %s\n", key)
	return nil
}

func newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the configuration to defaults",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths := config.ResolveRuntimePaths()
			if err := os.Remove(paths.ConfigPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing config: %w", err)
			}
			fmt.Println("✓ Configuration reset to defaults")
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(config.ResolveRuntimePaths().ConfigPath)
		},
	}
}
