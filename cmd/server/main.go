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

	"golang.org/x/sync/errgroup"

	"passport-status/internal/platform/config"
	"passport-status/internal/platform/httpserver"
	"passport-status/internal/platform/logger"
	"passport-status/internal/platform/tracing"
)

// main loads configuration, wires the application and serves until SIGINT or
// SIGTERM. Business logic lives in the internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, "service", cfg.ApplicationName)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.ApplicationName)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return err
	}

	srv := httpserver.New(cfg.Addr, app.router(), httpserver.WithHandlerTimeout(requestTimeout))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting passport status api",
			"addr", cfg.Addr,
			"postgres", app.db != nil,
			"redis", app.redis != nil,
			"kafka", app.kafka != nil,
			"tracing", cfg.Tracing.Active(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		errs = append(errs, app.close(shutdownCtx))
		if err := shutdownTracing(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
