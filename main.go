package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/products-form/internal/app/service"
	"github.com/mrops-br/products-form/internal/domain"
	"github.com/mrops-br/products-form/internal/infrastructure/config"
	"github.com/mrops-br/products-form/internal/infrastructure/gateway/rest"
	"github.com/mrops-br/products-form/internal/infrastructure/http"
	"github.com/mrops-br/products-form/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-form/internal/infrastructure/notify"
	"github.com/mrops-br/products-form/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-form/internal/infrastructure/telemetry"
)

func main() {
	cfg := config.LoadConfig()

	var (
		telem *telemetry.Telemetry
		err   error
	)
	if cfg.OTLP.Enabled {
		telem, err = telemetry.NewTelemetry(&cfg.OTLP, &cfg.Log)
	} else {
		telem, err = telemetry.NewNoOpTelemetry(&cfg.OTLP, &cfg.Log)
	}
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("products-form")
	meter := telem.MeterProvider.Meter("products-form")
	logger := telem.Logger

	logger.Info("Starting Products Form",
		slog.String("backend", cfg.Backend.BaseURL),
	)

	gateway, err := rest.NewProductGateway(&cfg.Backend,
		rest.NewHTTPClient(&cfg.Backend, telem.MeterProvider),
		tracer, meter, logger,
	)
	if err != nil {
		logger.Error("Invalid backend configuration", slog.String("error", err.Error()))
		return
	}

	pager, err := domain.NewPager(cfg.Form.DefaultPageSize, cfg.Form.PageSizeOptions)
	if err != nil {
		logger.Error("Invalid form configuration", slog.String("error", err.Error()))
		return
	}

	collection := memory.NewProductCollection(tracer, logger)
	controller := service.NewProductFormListController(
		gateway,
		collection,
		notify.NewLogNotifier(logger),
		pager,
		tracer, meter, logger,
	)

	// One initial fetch; the form stays usable with an empty list if it fails
	if err := controller.Load(ctx); err != nil {
		logger.Warn("Starting with an empty product list", slog.String("error", err.Error()))
	}

	formHandler := handler.NewFormHandler(controller, logger)
	server := http.NewServer(cfg, formHandler, telem.MeterProvider, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err.Error())
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}
