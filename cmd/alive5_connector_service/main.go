package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/app"
	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/aradsms/alive5_connector/internal/alive5_connector/provider"
	httptransport "github.com/aradsms/alive5_connector/internal/alive5_connector/transport/http"
	"github.com/aradsms/alive5_connector/internal/platform/config"
	"github.com/aradsms/alive5_connector/internal/platform/logger"
	"github.com/aradsms/alive5_connector/internal/platform/messagebroker"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "alive5-connector-service"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load("./configs", "config.defaults")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	appLogger.Info("Alive5 connector service starting...", "port", cfg.ConnectorHTTPPort, "base_url", cfg.Alive5BaseURL)

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	defaultCreds := domain.Credentials{APIKey: cfg.Alive5APIKey, BaseURL: cfg.Alive5BaseURL}
	alive5Client := provider.NewAlive5Client(appLogger, &http.Client{Timeout: cfg.HTTPTimeout()})
	cache := app.NewDirectoryCache(cfg.DirectoryCacheTTL())
	optionsService := app.NewOptionsService(alive5Client, alive5Client, cache, appLogger)
	dispatcher := app.NewDispatcher(alive5Client, alive5Client, appLogger)
	validate := validator.New()

	g, groupCtx := errgroup.WithContext(mainCtx)

	// --- Optional NATS execute consumer ---
	var jobConsumer *app.JobConsumer
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		appLogger.Info("Successfully connected to NATS")

		jobConsumer = app.NewJobConsumer(natsClient, dispatcher, defaultCreds, validate, 0, appLogger)
		if err := jobConsumer.Start(mainCtx, cfg.NATSExecuteSubject, cfg.NATSQueueGroup); err != nil {
			appLogger.Error("Failed to start NATS execute consumer", "error", err)
			os.Exit(1)
		}
	} else {
		appLogger.Info("NATS_URL not set; NATS execute consumer disabled")
	}

	// --- Host-facing HTTP API ---
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(httptransport.MetricsMiddleware)
	r.Use(chimiddleware.Timeout(5 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "Alive5 connector service is healthy"})
	})

	connectorHandler := httptransport.NewConnectorHandler(optionsService, dispatcher, defaultCreds, validate, appLogger)
	r.Route("/api/v1", func(v1 chi.Router) {
		if cfg.JWTAccessSecret != "" {
			v1.Use(httptransport.JWTAuthMiddleware(cfg.JWTAccessSecret, appLogger))
		} else {
			appLogger.Warn("JWT_ACCESS_SECRET not set; host API is unauthenticated")
		}
		connectorHandler.RegisterRoutes(v1)
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ConnectorHTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("HTTP server shut down gracefully.")
		return nil
	})

	// --- Metrics HTTP server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		appLogger.Info("Metrics HTTP server starting", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics HTTP server ListenAndServe error", "error", err)
			return err
		}
		return nil
	})

	// --- Graceful shutdown ---
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown...")

		if jobConsumer != nil {
			jobConsumer.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErr error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
			shutdownErr = errors.Join(shutdownErr, err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown failed", "error", err)
			shutdownErr = errors.Join(shutdownErr, err)
		}
		return shutdownErr
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Alive5 connector service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Alive5 connector service shut down.")
}
