// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch recent postings from the configured communities",
	Long: `Ingest polls each configured community feed, keeps postings inside the
collection window, drops duplicates and already-archived postings, and
commits the raw feed checkpoint. No API keys are required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, "ingest")
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
