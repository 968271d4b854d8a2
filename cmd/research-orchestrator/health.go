// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-orchestrator/internal/provider"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the research agent backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		h := provider.NewClient(loadConfig().Provider).Health(ctx)
		if flagSet(cmd, "json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(h); err != nil {
				return err
			}
		} else if h.Available {
			fmt.Printf("backend: %s (version %s, futurehouse available: %t)\n", h.Status, h.Version, h.FutureHouseAvailable)
		} else {
			fmt.Printf("backend unavailable: %s\n", h.Error)
		}
		if !h.Available {
			return fmt.Errorf("backend unavailable; queries will use fallback results")
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Bool("json", false, "output health as JSON")
	rootCmd.AddCommand(healthCmd)
}
