package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/ingest"
)

var ingestKeepGoing bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [episode...|all]",
	Short: "Clean, segment, embed and index transcripts",
	Long: `Ingest transcripts into the vector index.

Names are transcript files in the configured source, e.g. episode12.
With no arguments, or with "all", every episodeN file is ingested in
episode order. Re-ingesting an episode replaces its segments.

Examples:
  podsearch ingest episode1 episode2
  podsearch ingest all --keep-going --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		in, err := e.ingester()
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 || slices.Equal(names, []string{"all"}) {
			src, err := openSource(e.cfg.Source)
			if err != nil {
				return err
			}
			if names, err = ingest.ListEpisodes(ctx, src); err != nil {
				return err
			}
			if len(names) == 0 {
				return fmt.Errorf("no %s* transcripts found in source", ingest.EpisodePrefix)
			}
		}

		keepGoing := ingestKeepGoing || e.cfg.Ingest.KeepGoing
		report, runErr := in.Run(ctx, names, keepGoing)
		if err := printResult(report); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("%d of %d episodes failed: %w", report.Failed, len(names), runErr)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestKeepGoing, "keep-going", false, "continue after a failed episode")
	rootCmd.AddCommand(ingestCmd)
}
