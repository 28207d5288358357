package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/okomarov/mrag-assistant/internal/adapters/http"
	"github.com/okomarov/mrag-assistant/internal/bootstrap"
	"github.com/okomarov/mrag-assistant/internal/config"
	"github.com/okomarov/mrag-assistant/internal/observability/logging"
	"github.com/okomarov/mrag-assistant/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	app.AskUC.SetObserver(askObserver{metrics: serverMetrics})

	router := httpadapter.NewRouter(
		app.AskUC,
		app.IngestUC,
		app.Documents,
		app.Expander,
		serverMetrics,
		httpadapter.RouterOptions{
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxConcurrent:  cfg.APIMaxConcurrent,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api_server_failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}

type askObserver struct {
	metrics *metrics.HTTPServerMetrics
}

func (o askObserver) ObserveRetrieval(subQueries, references int) {
	o.metrics.RecordRetrieval("api", subQueries, references)
}

func (o askObserver) ObserveGate(status string) {
	o.metrics.RecordGateDecision("api", status)
}

func (o askObserver) ObserveMemoryWriteFailure() {
	o.metrics.RecordMemoryWriteFailure("api")
}
