package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/telepath-bot/telepath/internal/access"
	"github.com/telepath-bot/telepath/internal/agent"
	"github.com/telepath-bot/telepath/internal/channels/telegram"
	"github.com/telepath-bot/telepath/internal/config"
	"github.com/telepath-bot/telepath/internal/gateway"
	"github.com/telepath-bot/telepath/internal/httpx"
	"github.com/telepath-bot/telepath/internal/llm"
	"github.com/telepath-bot/telepath/internal/observability"
	"github.com/telepath-bot/telepath/internal/tools"
	"github.com/telepath-bot/telepath/internal/tools/stocks"
	"github.com/telepath-bot/telepath/internal/tools/transit"
	"github.com/telepath-bot/telepath/internal/tools/weather"
)

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: `Start the Telepath webhook server.

The server receives Telegram webhook updates, gates them against the
configured allow-list and answers through the model gateway, using live-data
tools for weather, stock quotes and transport status.

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file (optional, environment variables are used otherwise)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging")

	return cmd
}

func runServe(ctx context.Context, configPath string, debug bool) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.LogPresence(logger)

	metrics := observability.NewMetrics()

	// Tools share one bounded HTTP client.
	httpClient := httpx.NewClient()
	registry := tools.NewRegistry(logger)
	for _, t := range []tools.Tool{
		weather.NewTool(httpClient, nil),
		stocks.NewTool(httpClient, nil),
		transit.NewTool(httpClient, &transit.Config{
			AppID:  cfg.Tools.TfLAppID,
			AppKey: cfg.Tools.TfLAppKey,
		}),
	} {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("register tool %s: %w", t.Name(), err)
		}
	}

	modelGateway := llm.NewGateway(llm.Config{
		APIKey:    cfg.Model.APIKey,
		Endpoints: cfg.Model.Endpoints,
		Model:     cfg.Model.Model,
		Timeout:   cfg.Model.Timeout.Std(),
	}, logger, metrics)

	orchestrator := agent.NewOrchestrator(modelGateway, registry, logger, metrics)
	admission := agent.NewAdmission(cfg.Model.MaxConcurrent)

	allowlist := access.Parse(cfg.Access.AllowedUserIDs)
	allowlist.LogMode(logger)

	// A missing token degrades the send path (ErrNotConfigured on first send)
	// instead of aborting startup; bot.New rejects an empty token outright, so
	// the client is only built when a token is present.
	var b *bot.Bot
	if cfg.Telegram.Token != "" {
		b, err = bot.New(cfg.Telegram.Token, bot.WithSkipGetMe())
		if err != nil {
			return fmt.Errorf("create bot client: %w", err)
		}
	}
	sender := telegram.NewSender(b, logger, metrics)

	pipeline := gateway.NewPipeline(allowlist, admission, orchestrator, sender, logger, metrics)
	webhook := telegram.NewWebhook(pipeline, logger, metrics)
	mux := telegram.NewMux(cfg.Server.WebhookPath, webhook)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "port", cfg.Server.Port, "webhook_path", cfg.Server.WebhookPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
