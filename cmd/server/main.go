package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Skotchmaster/shirin_shop/internal/app"
	"github.com/Skotchmaster/shirin_shop/internal/config"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
)

func main() {
	config.LoadDotEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load", "status", "fail", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup", "status", "fail", "reason", "cannot init app", "error", err)
		os.Exit(1)
	}
	if err := a.Migrate(ctx); err != nil {
		log.Error("startup", "status", "fail", "reason", "migration failed", "error", err)
		os.Exit(1)
	}
	if err := a.BootstrapAdmin(ctx); err != nil {
		log.Error("startup", "status", "fail", "reason", "admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           a.Handler(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Info("http_server", "status", "listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server", "status", "fail", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		log.Warn("shutdown", "status", "forced")
		os.Exit(1)
	}()

	log.Info("shutdown", "status", "started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "status", "fail", "reason", "http server", "error", err)
	}
	if err := a.Close(); err != nil {
		log.Error("shutdown", "status", "fail", "reason", "close connections", "error", err)
	}
	log.Info("shutdown", "status", "complete")
}
