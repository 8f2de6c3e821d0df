package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/reviewdesk/internal/api"
	"github.com/sprite-ai/reviewdesk/internal/logging"
	"github.com/sprite-ai/reviewdesk/internal/reviewer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review service",
	Long: `Start an HTTP server that reviews code for reviewdesk clients.

Endpoints:
  GET  /health        Health check
  POST /review        Review one snippet
  POST /batch-review  Review several snippets
  POST /api/analyze   Raw static-analysis findings for a snippet
  GET  /api/ws        WebSocket for interactive sessions

Logs go to stderr unless --log-file is given.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config, 127.0.0.1:8000)")
	serveCmd.Flags().String("reviewer", "", "review backend: heuristic or chat (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	server := cfg.Server
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		server.Addr = addr
	}
	if kind, _ := cmd.Flags().GetString("reviewer"); kind != "" {
		server.Reviewer = kind
	}

	r, err := reviewer.New(server, logging.Component("reviewer"))
	if err != nil {
		return err
	}

	srv := api.New(server.Addr, r,
		api.WithLogger(logging.Component("api")),
		api.WithMaxCodeLength(server.MaxCodeLength),
	)

	log.Info().Str("reviewer", server.Reviewer).Int("max_code_length", server.MaxCodeLength).Msg("starting review service")
	return srv.Run(cmd.Context())
}
