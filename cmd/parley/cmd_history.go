package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/history"
	"github.com/parleyhq/parley/pkg/utils"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the prompt history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	cmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	cmd.Flags().String("kind", "", "filter by kind (query, command, response)")
	cmd.AddCommand(newHistorySearchCmd(), newHistoryStatsCmd(), newHistoryClearCmd())
	return cmd
}

func openHistoryStore() (*history.Store, error) {
	paths := config.ResolveRuntimePaths()
	return history.Open(paths.HistoryPath)
}

func printHistoryEntries(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %-8s  %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Kind, utils.Truncate(e.Content, 100))
	}
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	kind, _ := cmd.Flags().GetString("kind")

	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), limit, kind)
	if err != nil {
		return err
	}
	printHistoryEntries(entries)
	return nil
}

func newHistorySearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the prompt history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			store, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printHistoryEntries(entries)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	return cmd
}

func newHistoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show prompt history statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Total entries: %d\n", stats.TotalEntries)
			for _, kind := range slices.Sorted(maps.Keys(stats.ByKind)) {
				fmt.Printf("  %-10s %d\n", kind, stats.ByKind[kind])
			}
			if stats.TotalEntries > 0 {
				fmt.Printf("First: %s\n", stats.FirstEntry.Format("2006-01-02 15:04"))
				fmt.Printf("Last:  %s\n", stats.LastEntry.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all prompt history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("✓ History cleared")
			return nil
		},
	}
}
