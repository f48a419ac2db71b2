package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/openrouter"
	"github.com/parleyhq/parley/pkg/utils"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [filter]",
		Short: "List models available on OpenRouter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runModels,
	}
	return cmd
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadUserConfig()
	if err != nil {
		return err
	}

	client := openrouter.NewClient(cfg.APIKey,
		openrouter.WithBaseURL(cfg.BaseURL),
		openrouter.WithTimeout(cfg.Timeout()),
	)

	models, err := client.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}

	filter := ""
	if len(args) == 1 {
		filter = strings.ToLower(args[0])
	}

	fmt.Printf("%-48s %10s  %s\n", "MODEL", "CONTEXT", "NAME")
	fmt.Println(strings.Repeat("-", 100))
	shown := 0
	for _, m := range models {
		if filter != "" && !strings.Contains(strings.ToLower(m.ID), filter) && !strings.Contains(strings.ToLower(m.Name), filter) {
			continue
		}
		fmt.Printf("%-48s %10d  %s\n", utils.Truncate(m.ID, 48), m.ContextLength, utils.Truncate(m.Name, 38))
		shown++
	}
	fmt.Printf("\n%d models", shown)
	if filter != "" {
		fmt.Printf(" matching %q", filter)
	}
	fmt.Printf(" (default: %s)\n", cfg.DefaultModel)
	return nil
}
