package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"blackjack-lite/apps/server/internal/config"
	"blackjack-lite/apps/server/internal/engine"
	"blackjack-lite/apps/server/internal/gateway"
	"blackjack-lite/apps/server/internal/ledger"
)

const shutdownTimeout = 10 * time.Second

func newLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.Named("server")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledgerService, err := ledger.NewService(ctx, ledger.Options{
		Mode:        cfg.Ledger.Mode,
		SQLitePath:  cfg.Ledger.SQLitePath,
		PostgresDSN: cfg.Ledger.PostgresDSN,
		RecentLimit: cfg.Ledger.RecentLimit,
	}, logger)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer ledgerService.Close()

	eng := engine.New(engine.Options{
		ReconnectGrace:     cfg.ReconnectGrace,
		DefaultTurnTimeout: cfg.TurnTimeout,
		MaxPlayers:         cfg.MaxPlayers,
		MinPlayers:         cfg.MinPlayers,
		DefaultRounds:      cfg.DefaultRounds,
		ReshuffleThreshold: cfg.ReshuffleThreshold,
		ChatHistory:        cfg.ChatHistory,
	}, engine.Deps{Ledger: ledgerService, Logger: logger})
	gw := gateway.New(eng, gateway.Options{AllowedOrigins: cfg.AllowedOrigins}, logger)
	eng.SetSender(gw)

	engineCtx, stopEngine := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		eng.Run(engineCtx)
		close(engineDone)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	ledger.NewHTTPHandler(ledgerService, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting",
		zap.String("addr", cfg.ListenAddr),
		zap.String("ledger_mode", string(cfg.Ledger.Mode)),
		zap.Duration("reconnect_grace", cfg.ReconnectGrace),
		zap.Duration("turn_timeout", cfg.TurnTimeout))

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		logger.Error("listener failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http shutdown", zap.Error(shutdownErr))
	}
	gw.CloseAll()
	stopEngine()
	<-engineDone
	return err
}
