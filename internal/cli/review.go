package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/reviewdesk/internal/client"
	"github.com/sprite-ai/reviewdesk/internal/connectivity"
	"github.com/sprite-ai/reviewdesk/internal/diff"
	"github.com/sprite-ai/reviewdesk/internal/logging"
	"github.com/sprite-ai/reviewdesk/internal/model"
	"github.com/sprite-ai/reviewdesk/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Open the interactive review client",
	Long: `Open the interactive client: paste or type code, pick a language and
submit it for review. The form is replaced by an offline notice whenever the
review service cannot be reached.

Examples:
  reviewdesk review                    # empty editor
  reviewdesk review -f main.go         # prefill from a file
  reviewdesk review -l rust            # start with Rust selected`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	addReviewFlags(reviewCmd)
}

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("language", "l", "", "initial language (default: from --file, then config)")
	cmd.Flags().StringP("file", "f", "", "prefill the editor with this file")
}

func runReview(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	langFlag, _ := cmd.Flags().GetString("language")

	var code string
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		code = string(data)
	}

	lang, err := resolveLanguage(langFlag, path)
	if err != nil {
		return err
	}

	prober, err := connectivity.NewProber(cfg.Connectivity.Probe, cfg.APIURL, cfg.Connectivity.Timeout)
	if err != nil {
		return err
	}
	monitor := connectivity.NewMonitor(prober, cfg.Connectivity.Interval,
		connectivity.WithProbeTimeout(cfg.Connectivity.Timeout),
		connectivity.WithLogger(logging.Component("connectivity")),
		connectivity.WithInitialState(true),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("connectivity monitor stopped")
		}
	}()

	err = tui.Run(ctx, tui.Options{
		Client:   newClient(),
		Language: lang,
		Code:     code,
		APIURL:   cfg.APIURL,
		Logger:   logging.Component("tui"),
	}, monitor)

	cancel()
	wg.Wait()
	return err
}

// newClient builds a service client from the loaded configuration.
func newClient() *client.Client {
	return client.New(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logging.Component("client")),
	)
}

// resolveLanguage picks the language from an explicit flag, then the file
// extension, then the configured default.
func resolveLanguage(flag, path string) (model.Language, error) {
	if flag != "" {
		return model.ParseLanguage(flag)
	}
	if path != "" {
		if lang, ok := diff.LanguageForFile(path); ok {
			return lang, nil
		}
	}
	return cfg.Language(), nil
}
