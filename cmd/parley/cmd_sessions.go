package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved chat sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsList,
	}
	cmd.AddCommand(newSessionsDeleteCmd())
	return cmd
}

func openSessionStore() (*session.Store, error) {
	paths := config.ResolveRuntimePaths()
	return session.NewStore(paths.SessionsDir)
}

func runSessionsList(_ *cobra.Command, _ []string) error {
	store, err := openSessionStore()
	if err != nil {
		return err
	}
	infos, err := store.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No saved sessions yet.")
		return nil
	}
	fmt.Printf("%-32s %10s  %s\n", "NAME", "MESSAGES", "CREATED")
	for _, info := range infos {
		fmt.Printf("%-32s %10d  %s\n", info.Name, info.MessageCount, info.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := openSessionStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted session: %s\n", args[0])
			return nil
		},
	}
}
