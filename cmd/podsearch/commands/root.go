package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shubhpawar/office-ladies-podcast-search/cmd/podsearch/internal/config"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/cli"
)

var (
	// Global flags
	configFile    string
	indexOverride string
	verbose       bool
	formatOutput  string
	outputFile    string
	jqExpr        string

	// Loaded lazily by GetConfig.
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "podsearch",
	Short: "Semantic search over Office Ladies podcast transcripts",
	Long: `podsearch - index podcast transcripts and answer questions about them.

Transcripts are cleaned, split into overlapping windows of dialogue,
embedded and stored in a vector index. Queries are embedded the same way
and matched by cosine similarity.

Configuration is read from $PODSEARCH_CONFIG or the OS config directory:
  macOS:   ~/Library/Application Support/podsearch/config.yaml
  Linux:   ~/.config/podsearch/config.yaml
  Windows: %AppData%/podsearch/config.yaml

Examples:
  # Write a default config and index every transcript
  podsearch config init
  podsearch ingest all

  # Search, optionally within one episode
  podsearch search "the fire drill" -n 3
  podsearch search "who won" --episode-title Basketball --format table

  # Ask the answer model
  podsearch ask "Why did Dwight start the fire?"

  # Serve the HTTP API
  podsearch serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		_, err := cli.ParseFormat(formatOutput)
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default $PODSEARCH_CONFIG or the OS config dir)")
	pf.StringVar(&indexOverride, "index", "", "index backend override (memory, badger, pgvector, milvus)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVarP(&formatOutput, "format", "o", "yaml", "output format (yaml, json, table, raw)")
	pf.StringVar(&outputFile, "output", "", "write output to file instead of stdout")
	pf.StringVar(&jqExpr, "jq", "", "jq expression applied to the output")
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetConfig loads the configuration on first use. Commands that do not need
// it, like 'podsearch version', never touch the file.
func GetConfig() (*config.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	if indexOverride != "" {
		cfg.Index.Backend = indexOverride
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--index: %w", err)
		}
	}
	globalConfig = cfg
	return cfg, nil
}

// configPath returns the file GetConfig reads.
func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.Path()
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// printResult writes v using the global output flags.
func printResult(v any) error {
	format, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	return cli.Output(v, cli.OutputOptions{
		Format: format,
		File:   outputFile,
		JQ:     jqExpr,
	})
}
