package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/agentdef"
	"github.com/parleyhq/parley/pkg/config"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents [category]",
		Short: "List saved agents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			mgr, err := openAgentManager()
			if err != nil {
				return err
			}
			printPersonaList(mgr, category)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "templates",
		Short: "List the built-in agent templates",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printPersonaTemplates()
		},
	})
	return cmd
}

func openAgentManager() (*agentdef.Manager, error) {
	paths := config.ResolveRuntimePaths()
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return agentdef.NewManager(paths.AgentsDir, filepath.Join(config.ProjectDir(workDir), "agents")), nil
}
