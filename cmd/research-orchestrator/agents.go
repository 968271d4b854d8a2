// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the research agents that can be selected",
	RunE:  runAgents,
}

func init() {
	agentsCmd.Flags().String("category", "", "only list agents in this category")
	agentsCmd.Flags().String("provider", "", "only list agents run by this provider")
	agentsCmd.Flags().Bool("json", false, "output agents as JSON")

	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry(loadConfig())
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	prov, _ := cmd.Flags().GetString("provider")

	var list []types.AgentProfile
	if prov != "" {
		for _, p := range registry.ListByProvider(prov) {
			if category == "" || p.Category == category {
				list = append(list, p)
			}
		}
	} else {
		list = registry.List(category)
	}

	if flagSet(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No agents found.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-10s  %-10s  %-12s  %-18s  %s\n", "ID", "Name", "Provider", "Category", "Capabilities")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, p := range list {
		fmt.Fprintf(os.Stdout, "%-10s  %-10s  %-12s  %-18s  %s\n",
			p.ID, p.Name, p.Provider, p.Category, strings.Join(p.Capabilities, ", "))
	}
	return nil
}
