package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shubhpawar/office-ladies-podcast-search/cmd/podsearch/internal/server"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/llm"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Start the HTTP API.

Routes:
  GET  /api/search?q=&episode_title=&n=
  POST /api/ask      {"query": "...", "episode_title": "...", "num_results": 5}
  GET  /healthz
  GET  /metrics

/api/ask is disabled when no answer model key is configured.

Examples:
  podsearch serve
  podsearch serve --addr 127.0.0.1:9090 --index pgvector`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.pipeline()
		if err != nil {
			return err
		}
		var completer llm.Completer
		if c, err := newCompleter(ctx, e.cfg.LLM); err != nil {
			slog.Warn("answer model disabled", "error", err)
		} else {
			completer = c
		}

		srv, err := server.New(server.Config{
			Pipeline:  p,
			Completer: completer,
			Index:     e.index,
			Logger:    slog.Default().With("component", "server"),
		})
		if err != nil {
			return err
		}
		addr := e.cfg.Serve.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default serve.addr from config)")
	rootCmd.AddCommand(serveCmd)
}
