// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-orchestrator/internal/citation"
	"github.com/pdiddy/research-orchestrator/internal/report"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Submit a research question to the selected agents",
	Long: `Query validates the question, sends it to the selected research agents,
merges their sources and synthesis, formats citations, and stores the result
and one citation row per source.

Input comes from flags or from a YAML query file (--file). Interrupting the
command before the result is stored cancels the query; nothing is saved.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("title", "", "short title for the query")
	queryCmd.Flags().String("question", "", "the research question")
	queryCmd.Flags().String("agents", "crow", "comma-separated agent ids")
	queryCmd.Flags().String("area", "", "research area (default \"General Research\")")
	queryCmd.Flags().String("style", "apa", "citation style: apa, mla, chicago, bibtex")
	queryCmd.Flags().String("depth", "standard", "depth: quick, standard, comprehensive")
	queryCmd.Flags().Int("max-results", 0, "sources requested from the provider (default 50)")
	queryCmd.Flags().String("user", "local", "user id the query is stored under")
	queryCmd.Flags().String("file", "", "read the query from a YAML query file")
	queryCmd.Flags().String("save", "", "write the query and its result to a YAML file")
	queryCmd.Flags().Bool("json", false, "output the result as JSON")
	queryCmd.Flags().Bool("yaml", false, "output the result as YAML")
	queryCmd.Flags().Bool("csl", false, "output sources as CSL-YAML")
	queryCmd.Flags().Bool("citations", false, "output only the formatted citations")

	rootCmd.AddCommand(queryCmd)
}

func rawQueryFromFlags(cmd *cobra.Command) (types.RawQuery, string, error) {
	user, _ := cmd.Flags().GetString("user")
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		qf, err := report.ReadQueryFile(path)
		if err != nil {
			return types.RawQuery{}, "", err
		}
		if qf.User != "" && !cmd.Flags().Changed("user") {
			user = qf.User
		}
		return qf.Query, user, nil
	}

	raw := types.RawQuery{}
	raw.Title, _ = cmd.Flags().GetString("title")
	raw.Question, _ = cmd.Flags().GetString("question")
	raw.ResearchArea, _ = cmd.Flags().GetString("area")
	raw.CitationStyle, _ = cmd.Flags().GetString("style")
	raw.Depth, _ = cmd.Flags().GetString("depth")
	raw.MaxResults, _ = cmd.Flags().GetInt("max-results")
	agentList, _ := cmd.Flags().GetString("agents")
	for _, id := range strings.Split(agentList, ",") {
		if id = strings.TrimSpace(id); id != "" {
			raw.SelectedAgents = append(raw.SelectedAgents, id)
		}
	}
	return raw, user, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	raw, user, err := rawQueryFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	pq, err := a.orch.Submit(ctx, user, raw)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := report.WriteQueryFile(path, user, raw, pq); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %s\n", path)
	}

	out := cmd.OutOrStdout()
	switch {
	case flagSet(cmd, "json"):
		return report.FormatJSON(pq, out)
	case flagSet(cmd, "yaml"):
		return report.FormatYAML(pq, out)
	case flagSet(cmd, "csl"):
		return citation.FormatCSL(pq.Result.Sources, out)
	case flagSet(cmd, "citations"):
		report.FormatCitations(pq.Result, pq.Query.CitationStyle, out)
		return nil
	}
	report.FormatTable(pq, out)
	return nil
}

func flagSet(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
