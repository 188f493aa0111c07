// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trend-engine CLI.
// Implements: prd001-ingestion, prd002-factcheck, prd003-scoring,
//             prd004-curation, prd005-synthesis (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trend-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the trend-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "trend-engine",
	Short: "Staged pipeline for social-media trend curation",
	Long: `trend-engine refines community feed noise into publishable social copy
through five checkpointed stages: ingest, validate, score, curate, and
synthesize. Each stage reads its predecessor's checkpoint and commits its
own, so a failed run resumes from the last committed artifact.

Run the whole pipeline with "run", or a single stage with its subcommand.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trend-engine.yaml or ~/.config/trend-engine/config.yaml)")
	rootCmd.PersistentFlags().String("output-dir", "", "checkpoint directory (default: output)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trend-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trend-engine"))
		}
	}

	viper.SetEnvPrefix("TREND_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
