package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andy6609/relay-chat-server/internal/chat"
	"github.com/andy6609/relay-chat-server/internal/config"
	"github.com/andy6609/relay-chat-server/internal/observe"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	var events *chat.EventLog
	if cfg.LogFile != "" {
		events, err = chat.OpenEventLog(cfg.LogDir, cfg.LogFile, logger)
		if err != nil {
			logger.Warn("event log disabled", "error", err)
		} else {
			logger.Info("event log enabled", "path", events.Path())
		}
	}

	srv := chat.NewServer(cfg.Addr(), chat.Options{
		Framing:      cfg.Framing,
		ReadChunk:    cfg.ReadChunk,
		OutBuffer:    cfg.OutBuffer,
		WriteTimeout: cfg.WriteTimeout,
		Events:       events,
	}, logger)
	if err := srv.Listen(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Serve)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", "clients", srv.Registry().Names())
		return srv.Close()
	})

	if cfg.MetricsAddr != "" {
		metrics := observe.NewHTTPServer(cfg.MetricsAddr)
		g.Go(func() error {
			logger.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return metrics.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, chat.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
