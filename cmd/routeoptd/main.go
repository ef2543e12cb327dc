package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/config"
	"github.com/yggmesh/routeopt/enforcement"
	"github.com/yggmesh/routeopt/governance"
	"github.com/yggmesh/routeopt/monitoring"
	"github.com/yggmesh/routeopt/optimizer"
	"github.com/yggmesh/routeopt/reportapi"
	"github.com/yggmesh/routeopt/telemetry"
	"github.com/yggmesh/routeopt/utils"
	"github.com/yggmesh/routeopt/utils/env"
)

func main() {
	logger := utils.Must(zap.NewProduction())
	defer logger.Sync()
	sugar := logger.Sugar()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, sugar)
	if err != nil {
		sugar.Fatalw("Failed to load config", "error", err)
	}
	sugar.Infow("Loaded config", "config", cfg)

	opt := optimizer.New(cfg, sugar)

	monitoringCfg := loadMonitoringConfig()
	recorder, err := monitoring.NewRecorder(monitoringCfg, sugar)
	if err != nil {
		sugar.Fatalw("Failed to create monitoring recorder", "error", err)
	}
	opt.SetRecorder(recorder)
	defer recorder.Close()

	var reportCache *reportapi.ReportCache
	if endpoint := env.OptionalStringVariable("VALKEY_ENDPOINT", ""); endpoint != "" {
		valkeyClient, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{endpoint}})
		if err != nil {
			sugar.Fatalw("Failed to create Valkey client", "error", err)
		}
		defer valkeyClient.Close()
		reportCache = reportapi.NewReportCache(valkeyClient)
	}

	var verifier *governance.Verifier
	if secret := env.OptionalStringVariable("GOVERNANCE_JWT_SECRET", ""); secret != "" {
		verifier = governance.NewVerifier(secret)
	} else {
		sugar.Warnw("GOVERNANCE_JWT_SECRET not set, governance proposals endpoint is unauthenticated")
	}

	sink := governance.New(cfg, sugar)
	dispatcher := enforcement.New(enforcement.NoopRestarter{}, sugar)
	opt.AddOptimizationCallback(func(report optimizer.Report) {
		dispatcher.EnforceRecommendations(report.Recommendations)
	})

	var source telemetry.TelemetrySource = telemetry.NewMockSource()
	bridgeInterval := time.Duration(cfg.ProbeIntervalSeconds * float64(time.Second))
	bridge := telemetry.New(source, opt, bridgeInterval, sugar)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bridge.Start(ctx)

	server := reportapi.NewServer(opt, sink, verifier, reportCache, sugar)
	router := mux.NewRouter()
	server.RegisterRoutes(router)

	port := env.OptionalStringVariable("PORT", "8080")
	address := fmt.Sprintf(":%s", port)

	httpServer := &http.Server{
		Addr:    address,
		Handler: reportapi.Handler(router),
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownSignal
		sugar.Infow("Shutting down server...")

		// Cycle is driven by the telemetry bridge's own ticker, not
		// Optimizer.StartMonitoring; only the bridge needs stopping here.
		bridge.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugar.Fatalw("Server forced to shutdown", "error", err)
		}
	}()

	sugar.Infow("Starting server", "address", address)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		sugar.Fatalw("Failed to start server", "error", err)
	}

	sugar.Infow("Server exited gracefully")
}

func loadMonitoringConfig() *monitoring.Config {
	if !env.OptionalBoolVariable("MONITORING_ENABLED", false) {
		return &monitoring.Config{Enabled: false}
	}
	backend := env.OptionalStringVariable("MONITORING_BACKEND", "prometheus")
	switch backend {
	case "opentelemetry":
		return &monitoring.Config{
			Enabled: true,
			OpenTelemetry: &monitoring.OpenTelemetryConfig{
				Enabled:        true,
				Endpoint:       env.OptionalStringVariable("OTEL_ENDPOINT", "localhost:4317"),
				ServiceName:    "routeoptd",
				ServiceVersion: "dev",
				Environment:    env.OptionalStringVariable("ENVIRONMENT", "development"),
				Insecure:       env.OptionalBoolVariable("OTEL_INSECURE", true),
			},
		}
	default:
		return &monitoring.Config{
			Enabled: true,
			Prometheus: &monitoring.PrometheusConfig{
				Enabled:   true,
				Port:      env.OptionalIntVariable("METRICS_PORT", 9090),
				Path:      "/metrics",
				Namespace: "routeopt",
			},
		}
	}
}
