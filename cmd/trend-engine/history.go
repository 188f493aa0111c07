// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trend-engine/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the coverage archive",
	Long: `History searches the coverage archive of past runs. With --query, titles
are matched with full-text search; without it, the most recently archived
postings are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		arch, err := archive.NewStore(cfg.Archive)
		if err != nil {
			return err
		}
		defer arch.Close()

		query, _ := cmd.Flags().GetString("query")
		maxResults, _ := cmd.Flags().GetInt("max-results")

		if path, _ := cmd.Flags().GetString("export"); path != "" {
			if err := arch.ExportYAML(cmd.Context(), query, path); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Exported archive to", path)
			return nil
		}

		entries, err := arch.Search(cmd.Context(), query, maxResults)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			out, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No archived postings match.")
			return nil
		}
		for _, e := range entries {
			marker := " "
			if e.Selected {
				marker = "*"
			}
			fmt.Printf("%s %s  r/%-16s %6.1f  %s  %s\n",
				marker, e.RecordedAt.Format("2006-01-02"), e.Subreddit, e.CompositeScore, e.ID, e.Title)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("query", "", "full-text search over archived titles")
	historyCmd.Flags().Int("max-results", 0, "maximum number of results (default from config)")
	historyCmd.Flags().Bool("json", false, "output results as JSON")
	historyCmd.Flags().String("export", "", "write matching postings to this file as YAML")

	rootCmd.AddCommand(historyCmd)
}
