// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the qbank CLI. It turns plain-text
// exam dumps into question sets, annotates them with clinical entities and
// keeps a local question bank.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qbank/internal/annotate"
	"github.com/pdiddy/qbank/internal/logging"
	"github.com/pdiddy/qbank/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the qbank CLI.
var rootCmd = &cobra.Command{
	Use:   "qbank",
	Short: "Parse, annotate and store medical exam questions",
	Long: `qbank converts plain-text exam question dumps into structured JSON,
annotates each question stem with clinical entities from a configurable
pattern file, and maintains a local SQLite question bank.

Typical flow:
  qbank parse data/raw/enarm.txt data/questions.json
  qbank enrich data/questions.json data/enriched.json
  qbank store ingest data/enriched.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := logging.Configure(os.Stderr, viper.GetString("log.level"), viper.GetString("log.format"))
		return err
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./qbank.yaml or ~/.config/qbank/qbank.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.SetDefault("enrich.patterns", annotate.DefaultPatternsPath)
	viper.SetDefault("store.dir", "data/bank")
	viper.SetDefault("store.max_results", 20)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("qbank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "qbank"))
		}
	}

	viper.SetEnvPrefix("QBANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig collects stage settings from flags, environment and the
// config file.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Parse: types.ParseConfig{
			SkipMalformed: viper.GetBool("parse.skip_malformed"),
			UniqueIDs:     viper.GetBool("parse.unique_ids"),
		},
		Enrich: types.EnrichConfig{
			PatternsPath: viper.GetString("enrich.patterns"),
		},
		Store: types.StoreConfig{
			Dir:        viper.GetString("store.dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
		Log: types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}
	slog.Debug("pipeline config", "parse", cfg.Parse, "enrich", cfg.Enrich, "store", cfg.Store)
	return cfg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
