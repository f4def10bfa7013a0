package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/bot"
	"github.com/antoniostano/todobot/internal/channel/telegram"
	"github.com/antoniostano/todobot/internal/channel/webchat"
	"github.com/antoniostano/todobot/internal/config"
	"github.com/antoniostano/todobot/internal/httpapi"
	"github.com/antoniostano/todobot/internal/observability"
	"github.com/antoniostano/todobot/internal/policy"
	"github.com/antoniostano/todobot/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the configured Telegram transport",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := openStore(runCtx, metrics)
	if err != nil {
		return err
	}
	defer store.Close()

	tasks := store.Load(runCtx)
	handler := bot.NewHandler(tasks, store, logger, metrics)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.StartJanitor(runCtx, 5*time.Second)
	chat := webchat.New(handler, sessions, metrics, logger, cfg.AllowAnyOrigin)

	deps := httpapi.Deps{
		Store:     tasks,
		StoreMode: store.Mode(),
		Chat:      chat,
		Logger:    logger,
	}

	var pollErr error
	pollDone := make(chan struct{})
	close(pollDone)
	if cfg.TelegramEnabled() {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("telegram login: %s", policy.RedactError(err))
		}
		logger.Info("telegram authorized", zap.String("bot", api.Self.UserName), zap.String("mode", cfg.TelegramMode))
		dispatcher := telegram.NewDispatcher(api, handler, policy.ParseAllowlist(cfg.AllowedUserIDs), logger, metrics)
		dispatcher.SetBotName(api.Self.UserName)
		switch cfg.TelegramMode {
		case config.TelegramWebhook:
			deps.Webhook = dispatcher.WebhookHandler(cfg.TelegramWebhookSecret)
		case config.TelegramPolling:
			pollDone = make(chan struct{})
			go func() {
				defer close(pollDone)
				if err := dispatcher.Poll(runCtx, cfg.TelegramPollTimeout); err != nil {
					logger.Error("telegram polling stopped", zap.Error(err))
					pollErr = err
					stop()
				}
			}()
		}
	} else {
		logger.Info("telegram disabled", zap.Bool("token_set", cfg.TelegramToken != ""), zap.String("mode", cfg.TelegramMode))
	}

	api := httpapi.New(cfg, deps)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-runCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		logger.Error("listen error", zap.Error(err))
		stop()
		<-pollDone
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}
	<-pollDone

	logger.Info("shutdown complete")
	return pollErr
}
