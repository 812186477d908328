package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sraslabs/sras/internal/client"
	"github.com/sraslabs/sras/internal/config"
	"github.com/sraslabs/sras/internal/events"
	"github.com/sraslabs/sras/internal/session"
	"github.com/sraslabs/sras/internal/ui"
)

var (
	serverURL  string
	jsonOutput bool
	verbose    bool

	cfg       *config.Config
	sessions  *session.FileStore
	api       client.Client
	publisher events.Publisher
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sras",
	Short: "CLI client for the SRAS violation verification service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}

		path, err := session.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolving session path: %w", err)
		}
		sessions = session.NewFileStore(path)
		api = client.NewHTTPClient(cfg.ServerURL, sessions, logger)

		publisher = &events.NoopPublisher{}
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				// Events are best effort; the CLI keeps working without them.
				logger.Warn("nats unavailable, events disabled", "url", cfg.NATSURL, "err", err)
			} else {
				publisher = pub
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if publisher != nil {
			publisher.Close()
		}
		if api != nil {
			api.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (default $SRAS_SERVER_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
