package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignmarket/listing-bot/internal/env"
	"github.com/ignmarket/listing-bot/internal/gateway"
	"github.com/ignmarket/listing-bot/internal/localdb"
	"github.com/ignmarket/listing-bot/internal/notify"
	"github.com/ignmarket/listing-bot/internal/session"
	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"github.com/ignmarket/listing-bot/internal/shared/paths"
	"github.com/ignmarket/listing-bot/internal/webserver"
	"github.com/ignmarket/listing-bot/internal/workflow"
	"go.uber.org/zap"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting listing-bot server")

	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to ensure data directories", zap.Error(err))
	}

	db, err := localdb.SetupDB(paths.GetDBPath())
	if err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}

	store := localdb.NewStore(db)
	settingsManager := settings.NewManager(db)

	var messenger notify.Messenger
	var prober workflow.MessageProber
	if env.Value.GatewayURL != "" {
		client := gateway.NewClient(env.Value.GatewayURL)
		messenger = client
		prober = client
		logger.Info("Gateway configured", zap.String("url", env.Value.GatewayURL))
	} else {
		messenger = gateway.LogMessenger{}
		logger.Warn("No GATEWAY_URL configured; direct messages will only be logged")
	}

	notifier := notify.NewNotifier(messenger)
	flow := workflow.New(store, settingsManager, notifier, env.Value.ConfirmationTTL)
	sessions := session.NewManager(store, settingsManager, env.Value.SessionTTL)

	if err := webserver.StartWebServer(env.Value.ServerPort, webserver.Deps{
		Sessions: sessions,
		Store:    store,
		Settings: settingsManager,
		Flow:     flow,
		Prober:   prober,
	}); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webserver.Shutdown(ctx); err != nil {
		logger.Error("Web server shutdown failed", zap.Error(err))
	}

	notifier.Shutdown()
	if err := localdb.CloseDB(); err != nil {
		logger.Error("Database close failed", zap.Error(err))
	}
}
