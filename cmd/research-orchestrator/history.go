// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-orchestrator/internal/report"
	"github.com/pdiddy/research-orchestrator/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored queries or citations",
	Long: `History lists a user's stored research queries, newest first. With
--citations it lists the saved citation rows instead. --export writes the
queries with their sources as YAML or JSON.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("user", "local", "user id to list")
	historyCmd.Flags().Bool("citations", false, "list citation rows instead of queries")
	historyCmd.Flags().Int("limit", 0, "maximum rows (default 50 queries or 100 citations)")
	historyCmd.Flags().String("export", "", "export queries as yaml or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	user, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")

	st, err := store.Open(ctx, loadConfig().Store)
	if err != nil {
		return err
	}
	defer st.Close()

	if format, _ := cmd.Flags().GetString("export"); format != "" {
		return st.Export(ctx, os.Stdout, user, format, limit)
	}

	if flagSet(cmd, "citations") {
		list, err := st.ListCitations(ctx, user, limit)
		if err != nil {
			return err
		}
		report.FormatCitationRecords(list, os.Stdout)
		return nil
	}

	list, err := st.ListQueries(ctx, user, limit)
	if err != nil {
		return err
	}
	report.FormatHistory(list, os.Stdout)
	return nil
}
