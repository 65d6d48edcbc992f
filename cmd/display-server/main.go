// Command display-server renders displays on demand for polling devices.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"spendboard/internal/cli"
	apphttp "spendboard/internal/http"
	"spendboard/internal/log"
	promcollector "spendboard/internal/metrics/prometheus"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentHTTP)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := promcollector.NewCollector("spendboard")
	if err := collector.Register(registry); err != nil {
		logger.Error("Failed to register metrics", log.FieldError, err)
		os.Exit(1)
	}

	display, err := cli.NewDisplay(context.Background(), cfg, collector)
	if err != nil {
		logger.Error("Failed to initialize display", log.FieldError, err)
		os.Exit(1)
	}
	defer display.Close()

	srv := apphttp.NewServer(":"+cfg.Port, display, apphttp.Options{
		Gatherer:      registry,
		RenderTimeout: cfg.SourceTimeout + 10*time.Second,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting display server", "port", cfg.Port, "source", cfg.DataSource)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
