// Package main запускает HTTP-сервер сервиса заказов ресторана.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/astren/internal/catalogfeed"
	"github.com/mmeshcher/astren/internal/config"
	"github.com/mmeshcher/astren/internal/deal"
	"github.com/mmeshcher/astren/internal/handler"
	"github.com/mmeshcher/astren/internal/middleware"
	"github.com/mmeshcher/astren/internal/repository"
	"github.com/mmeshcher/astren/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	loc, err := cfg.Location()
	if err != nil {
		sugar.Fatalw("timezone error", "error", err.Error())
	}

	gate, err := deal.NewGate(cfg.AvailabilityPolicy, loc)
	if err != nil {
		sugar.Fatalw("availability policy error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var feed *catalogfeed.Client
	if cfg.CatalogFeedAddress != "" {
		feed = catalogfeed.NewClient(cfg.CatalogFeedAddress)
	}

	svc := service.NewService(repo, feed, gate, cfg.DealRefreshInterval, logger)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.LoadCatalog(ctx); err != nil {
		sugar.Fatalw("catalog load error", "error", err.Error())
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}
	server.RegisterOnShutdown(h.CloseStreams)

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая синхронизация каталога с базой и внешним источником
	g.Go(func() error {
		svc.StartCatalogSync(ctx, cfg.CatalogSyncInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting astren server",
			"addr", cfg.RunAddress,
			"policy", cfg.AvailabilityPolicy,
			"timezone", loc.String(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
