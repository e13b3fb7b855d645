package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/cli"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/segment"
)

// segmentList is the output of 'podsearch segments'.
type segmentList struct {
	EpisodeNumber string            `json:"episode_number"`
	EpisodeTitle  string            `json:"episode_title"`
	Lines         int               `json:"lines"`
	Segments      []segment.Segment `json:"segments"`
}

// Render implements cli.Renderer.
func (l segmentList) Render(s cli.Styles) string {
	cards := make([]cli.Card, len(l.Segments))
	for i, seg := range l.Segments {
		cards[i] = cli.Card{
			Title: seg.ID,
			Meta:  []string{cli.FormatSpan(seg.StartTime, seg.EndTime)},
			Body:  cli.Truncate(seg.Text, 4*cli.DefaultCardWidth),
		}
	}
	header := s.Title.Render(fmt.Sprintf("%s · %s", l.EpisodeNumber, l.EpisodeTitle)) +
		s.Help.Render(fmt.Sprintf("  %d lines, %d segments", l.Lines, len(l.Segments)))
	return header + "\n" + cli.RenderCards(s, cli.DefaultCardWidth, cards)
}

var segmentsCmd = &cobra.Command{
	Use:   "segments <episode>",
	Short: "Show how a transcript is segmented, without embedding",
	Long: `Clean and segment one transcript from the configured source and print
the segments that ingest would embed. No API keys are needed.

Examples:
  podsearch segments episode12
  podsearch segments episode12 --format table
  podsearch segments episode12 --jq '.segments[0].text'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		in, err := newIngester(cfg, nil, nil)
		if err != nil {
			return err
		}
		ep, segs, err := in.Parse(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(segmentList{
			EpisodeNumber: ep.Number,
			EpisodeTitle:  ep.Title,
			Lines:         len(ep.Lines),
			Segments:      segs,
		})
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
}
