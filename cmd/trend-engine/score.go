// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/trend-engine/internal/secrets"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and rank validated postings by trend momentum",
	Long: `Score grades each validated posting on the virality rubric, blends in the
search-interest signal when it is available, and commits the checkpoint
re-sorted by composite score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, "score", secrets.KeyGoogle)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
