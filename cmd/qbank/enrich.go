// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qbank/internal/annotate"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <input.json> <output.json>",
	Short: "Annotate question stems with clinical entities",
	Long: `Enrich loads a pattern file (JSON, or YAML for .yaml/.yml), scans every
question stem against the patterns in declaration order, and appends one
clinical entity per match. All other fields, including unknown keys, are
written back unchanged.

Patterns are matched case-insensitively. A timeline pattern with a capture
group records the first group as attributes.value.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	slog.Info("loading patterns", "path", cfg.Enrich.PatternsPath)

	_, err := annotate.EnrichFile(args[0], args[1], cfg.Enrich.PatternsPath, cmd.OutOrStdout())
	return err
}

func init() {
	enrichCmd.Flags().String("patterns", annotate.DefaultPatternsPath, "pattern file (JSON or YAML)")

	viper.BindPFlag("enrich.patterns", enrichCmd.Flags().Lookup("patterns"))

	rootCmd.AddCommand(enrichCmd)
}
