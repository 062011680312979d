// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qbank/internal/dataset"
	"github.com/pdiddy/qbank/internal/parse"
)

var parseCmd = &cobra.Command{
	Use:   "parse <input.txt> <output.json>",
	Short: "Parse a plain-text exam dump into a JSON question set",
	Long: `Parse splits a UTF-8 text document on horizontal-rule lines and turns
each block into a question: header, metadata, stem, options and answer.
The output is a JSON array written atomically; its parent directory is
created if needed.

By default a block without a "Pregunta N (...):" header aborts the run and
no output is written. Use --skip-malformed to report and skip such blocks.`,
	Args: cobra.ExactArgs(2),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	cfg := pipelineConfig()
	w := cmd.OutOrStdout()

	result, err := parse.ParseFile(in, cfg.Parse, w)
	if err != nil {
		return err
	}
	slog.Info("parsed document", "input", in, "blocks", result.Total(), "skipped", len(result.Skipped))

	if err := dataset.Write(out, result.Questions); err != nil {
		return err
	}

	fmt.Fprintf(w, "parsed %d questions -> %s\n", len(result.Questions), out)
	if result.HasSkipped() {
		fmt.Fprintf(w, "skipped %d malformed block(s)\n", len(result.Skipped))
	}
	return nil
}

func init() {
	parseCmd.Flags().Bool("skip-malformed", false, "skip blocks without a valid header instead of aborting")
	parseCmd.Flags().Bool("unique-ids", false, "fail when two questions derive the same ID")

	viper.BindPFlag("parse.skip_malformed", parseCmd.Flags().Lookup("skip-malformed"))
	viper.BindPFlag("parse.unique_ids", parseCmd.Flags().Lookup("unique-ids"))

	rootCmd.AddCommand(parseCmd)
}
