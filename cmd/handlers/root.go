/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arxivreco/internal/config"
	"arxivreco/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "arxivreco",
		Short: "arxivreco ranks today's new arXiv papers against your interest profile.",
		Long: `arxivreco fetches the daily "new" listings of the configured arXiv feeds,
merges cross-listed papers, embeds every paper and your profile, and publishes
the most similar papers as a dated JSON archive plus a static HTML page.

Examples:
  # Rank today's listings and write docs/index.html and docs/data/<date>.json
  arxivreco run

  # Show the latest archived digest
  arxivreco show

  # Browse an older digest interactively
  arxivreco browse 2025-12-12`,
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.arxivreco.yaml or $HOME/.arxivreco.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewBrowseCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewFeedsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies its logging settings
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	// Show which config file is being used (if any)
	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
	return cfg, nil
}
