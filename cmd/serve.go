package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/pinewood-robotics/chatbridge/internal/bridge"
	"github.com/pinewood-robotics/chatbridge/internal/config"
	"github.com/pinewood-robotics/chatbridge/internal/gchat"
	"github.com/pinewood-robotics/chatbridge/internal/identity"
	"github.com/pinewood-robotics/chatbridge/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load .env if present (ignore error if not exists)
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := log.New(os.Stdout, "chatbridge ", log.LstdFlags)

		// A partially configured bridge still serves: the request gatekeeper
		// rejects all traffic with 500 until the deployment is fixed.
		if missing := cfg.MissingVars(); len(missing) > 0 {
			logger.Printf("WARNING: missing required configuration: %s", strings.Join(missing, ", "))
			logger.Printf("WARNING: all inbound events will be rejected until these are set")
		}

		shutdownTelemetry, err := observability.Init(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize observability: %w", err)
		}

		slackClient := slack.New(cfg.SlackBotToken)
		resolver := identity.NewResolver(slackClient, cfg.SlackLookupTimeout, logger)
		relay := gchat.NewClient(cfg.GChatWebhookTimeout, logger)
		handler := bridge.NewHandler(cfg, resolver, relay, logger)

		server := bridge.NewServer(bridge.ServerConfigFrom(cfg), handler, logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = server.Run(ctx)

		if shutdownErr := shutdownTelemetry(context.Background()); shutdownErr != nil {
			logger.Printf("observability shutdown error: %v", shutdownErr)
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
