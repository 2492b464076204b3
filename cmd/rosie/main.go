package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/antoniostano/rosie/internal/app"
	"github.com/antoniostano/rosie/internal/config"
	"github.com/antoniostano/rosie/internal/logging"
)

func main() {
	// A .env file keeps local runs configurable without exported shell
	// state. Real environment variables win over file entries.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	result, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.WithError(err).Warn("cleanup failed")
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: result.API.Router(),
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	result.Sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		logger.WithField("addr", cfg.BindAddr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}
