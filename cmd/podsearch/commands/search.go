package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/cli"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/search"
)

var (
	searchEpisodeTitle string
	searchNumResults   int
)

// resultList is the output of 'podsearch search'.
type resultList struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// Render implements cli.Renderer.
func (l resultList) Render(s cli.Styles) string {
	if len(l.Results) == 0 {
		return s.Help.Render("no results")
	}
	return cli.RenderCards(s, cli.DefaultCardWidth, resultCards(l.Results))
}

func resultCards(results []search.Result) []cli.Card {
	cards := make([]cli.Card, len(results))
	for i, r := range results {
		cards[i] = cli.Card{
			Title: r.EpisodeNumber + " · " + r.EpisodeTitle,
			Meta:  []string{cli.FormatScore(r.Score), cli.FormatSpan(r.StartTime, r.EndTime)},
			Body:  r.Text,
		}
	}
	return cards
}

// answer is the output of 'podsearch ask'.
type answer struct {
	Query   string          `json:"query"`
	Answer  string          `json:"answer"`
	Results []search.Result `json:"results"`
}

// Render implements cli.Renderer.
func (a answer) Render(s cli.Styles) string {
	out := s.Label.Render("Answer") + "\n" + a.Answer
	if len(a.Results) > 0 {
		out += "\n\n" + s.Help.Render("Sources") + "\n" + cli.RenderCards(s, cli.DefaultCardWidth, resultCards(a.Results))
	}
	return out
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the transcript segments closest to a query",
	Long: `Embed the query and return the most similar transcript segments,
best match first.

Examples:
  podsearch search "Michael burns his foot"
  podsearch search "who won the game" --episode-title Basketball -n 3
  podsearch search "pretzel day" --format table`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.pipeline()
		if err != nil {
			return err
		}
		q := strings.Join(args, " ")
		results, err := p.Query(ctx, q, searchOptions())
		if err != nil {
			return err
		}
		return printResult(resultList{Query: q, Results: results})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the most relevant transcript segments",
	Long: `Search for the question, then ask the configured answer model to
reply using the matching segments as context.

Examples:
  podsearch ask "Why did Dwight start the fire?"
  podsearch ask "What did Kevin spill?" -n 8 --format table`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		completer, err := newCompleter(ctx, e.cfg.LLM)
		if err != nil {
			return err
		}
		p, err := e.pipeline()
		if err != nil {
			return err
		}
		q := strings.Join(args, " ")
		results, err := p.Query(ctx, q, searchOptions())
		if err != nil {
			return err
		}
		reply, err := search.Answer(ctx, completer, q, results)
		if err != nil {
			return err
		}
		return printResult(answer{Query: q, Answer: reply, Results: results})
	},
}

func searchOptions() search.Options {
	return search.Options{EpisodeTitle: searchEpisodeTitle, NumResults: searchNumResults}
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, askCmd} {
		c.Flags().StringVar(&searchEpisodeTitle, "episode-title", "", "only search the episode with this exact title")
		c.Flags().IntVarP(&searchNumResults, "num-results", "n", search.DefaultNumResults, "maximum number of segments")
		rootCmd.AddCommand(c)
	}
}
