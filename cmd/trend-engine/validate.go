// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/trend-engine/internal/secrets"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Fact-check ingested postings against the raw feed checkpoint",
	Long: `Validate probes each posting's discovery link, sends the survivors to the
fact-check collaborator in batches, applies the acceptance gate, and commits
the validated checkpoint with only the configured statuses kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, "validate", secrets.KeyPerplexity)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
