// Package cli wires the reviewdesk commands together.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/reviewdesk/internal/config"
	"github.com/sprite-ai/reviewdesk/internal/logging"
)

var (
	cfgFile  string
	apiURL   string
	logLevel string
	logFile  string

	// populated by PersistentPreRunE for every command
	cfg       *config.Config
	closeLogs = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "reviewdesk",
	Short: "Submit code for review and read the verdict",
	Long: `reviewdesk sends a code snippet and its language to a review service and
shows the severity, the review text and a list of suggestions.

Run without a subcommand to open the interactive client.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runReview,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "review service base URL (overrides $"+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	addReviewFlags(rootCmd)

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// exitError ends the process with a specific code without printing anything
// further.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	closeLogs()
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

// setup loads configuration and installs the global logger. Precedence for
// the service URL is flag, then environment, then file, then default.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if apiURL != "" {
		loaded.APIURL = apiURL
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	file := logFile
	if file == "" && cmd != serveCmd {
		// the interactive client owns the terminal, so logs go to disk
		file = logging.DefaultLogFile()
	}

	logger, closer, err := logging.New(loaded.LogLevel, file, os.Stderr)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	log.Logger = logger

	cfg = loaded
	closeLogs = closer
	log.Debug().Str("cmd", cmd.Name()).Str("api_url", cfg.APIURL).Msg("starting")
	return nil
}
