package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/reviewdesk/internal/client"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the review service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	status, err := newClient().Health(cmd.Context())
	if err != nil {
		log.Warn().Err(err).Str("kind", client.Kind(err)).Msg("health check failed")
		fmt.Fprintf(cmd.OutOrStdout(), "%s is unreachable: %s\n", cfg.APIURL, client.Message(err))
		return &exitError{code: 1}
	}

	name := status.Service
	if name == "" {
		name = "review service"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s at %s is %s\n", name, cfg.APIURL, status.Status)
	return nil
}
