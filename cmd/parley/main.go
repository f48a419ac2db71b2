// Parley - Terminal chat client for OpenRouter
// License: MIT
//
// Copyright (c) 2026 Parley contributors

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/config"
)

// Build metadata, injected via -ldflags at release time.
var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const logo = "💬"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += " (" + gitCommit + ")"
	}
	return v
}

func printVersion() {
	fmt.Printf("%s parley %s\n", logo, formatVersion())
	if buildTime != "" {
		fmt.Printf("  Built: %s\n", buildTime)
	}
	if goVersion != "" {
		fmt.Printf("  Go: %s\n", goVersion)
	} else {
		fmt.Printf("  Go: %s\n", runtime.Version())
	}
}

var (
	flagModel   string
	flagVerbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "parley",
		Short: "Chat with LLMs through OpenRouter",
		Long: `Parley is an interactive terminal client for OpenRouter.

Run it with no arguments to start a chat session. Models that support
tool calling can read and write files, run commands and search the web
on your behalf; everything else falls back to plain streaming chat.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runChat,
	}

	root.Flags().StringVarP(&flagModel, "model", "m", "", "model to chat with (overrides config)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newConfigCmd(),
		newModelsCmd(),
		newSessionsCmd(),
		newAgentsCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printVersion()
		},
	}
}

// loadUserConfig resolves the runtime paths and loads the user config
// for the non-interactive subcommands.
func loadUserConfig() (*config.Config, config.RuntimePaths, error) {
	paths := config.ResolveRuntimePaths()
	cfg, err := config.LoadConfig(paths.ConfigPath)
	if err != nil {
		return nil, paths, fmt.Errorf("loading config %s: %w", paths.ConfigPath, err)
	}
	return cfg, paths, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
