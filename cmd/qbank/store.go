// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qbank/internal/dataset"
	"github.com/pdiddy/qbank/internal/store"
	"github.com/pdiddy/qbank/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the question bank (ingest, query, export)",
	Long: `Store manages a local SQLite question bank built from parsed or enriched
question sets. Use subcommands to ingest files, query them, or export.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest <questions.json>...",
	Short: "Ingest question sets into the question bank",
	Long: `Ingest reads one or more JSON question sets and upserts every question by
ID together with its reasoning tags and clinical entities. Questions whose
content is unchanged since the last ingest are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	failed := 0
	for _, path := range args {
		questions, err := dataset.Read(path)
		if err != nil {
			return err
		}
		summary, err := s.Ingest(cmd.Context(), questions, path, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		failed += summary.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d question(s) failed indexing", failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the question bank with filters",
	Long: `Query filters stored questions by stem text, exam, year, reasoning tag,
and clinical entity type or value. Filters combine with AND. Results are
ordered by question ID.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide text, --exam, --year, --tag, --entity-type or --entity-value")
	}

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []types.Question, jsonOutput bool) error {
	if jsonOutput {
		data, err := dataset.Encode(results)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-16s  %-8s  %-4s  %-50s  %s\n", "ID", "Exam", "Year", "Stem", "Entities")
	fmt.Fprintln(w, strings.Repeat("-", 92))

	for _, q := range results {
		year := "-"
		if q.Year != nil {
			year = fmt.Sprint(*q.Year)
		}
		fmt.Fprintf(w, "%-16s  %-8s  %-4s  %-50s  %d\n",
			truncate(q.ID, 16), truncate(q.SourceExam, 8), year, truncate(q.Stem, 50), len(q.ClinicalEntities))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the question bank to YAML or JSON",
	Long: `Export writes the full question bank (or a filtered subset) to
<store-dir>/export.yaml or export.json, or to --output. Supports the same
filter flags as query for partial exports. JSON exports have the same shape
as parse and enrich output.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	var n int
	switch format {
	case "yaml", "":
		if output == "" {
			output = s.DefaultExportPath("yaml")
		}
		n, err = s.ExportYAML(cmd.Context(), opts, output)
	case "json":
		if output == "" {
			output = s.DefaultExportPath("json")
		}
		n, err = s.ExportJSON(cmd.Context(), opts, output)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d questions to %s\n", n, output)
	return nil
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	text, _ := cmd.Flags().GetString("text")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}

	exam, _ := cmd.Flags().GetString("exam")
	year, _ := cmd.Flags().GetInt("year")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	entityType, _ := cmd.Flags().GetString("entity-type")
	entityValue, _ := cmd.Flags().GetString("entity-value")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Text:        text,
		Exam:        exam,
		Year:        year,
		Tags:        tags,
		EntityType:  types.EntityType(entityType),
		EntityValue: entityValue,
		MaxResults:  limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("text", "", "substring of the question stem")
	cmd.Flags().String("exam", "", "filter by source exam")
	cmd.Flags().Int("year", 0, "filter by exam year")
	cmd.Flags().StringSlice("tag", nil, "filter by reasoning tag (repeatable, all must match)")
	cmd.Flags().String("entity-type", "", "filter by clinical entity type: timeline, symptom, finding, ...")
	cmd.Flags().String("entity-value", "", "filter by clinical entity label")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "data/bank", "directory holding qbank.db and exports")
	storeCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")

	viper.BindPFlag("store.dir", storeCmd.PersistentFlags().Lookup("store-dir"))
	viper.BindPFlag("store.max_results", storeCmd.PersistentFlags().Lookup("max-results"))

	addFilterFlags(storeQueryCmd)
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	addFilterFlags(storeExportCmd)
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("output", "", "output path (default <store-dir>/export.<format>)")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
