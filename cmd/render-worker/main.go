// Command render-worker keeps display files current. It re-renders every
// configured account on RENDER_INTERVAL and, when AMQP_URL is set, also
// serves render requests from the queue.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spendboard/internal/amqp"
	"spendboard/internal/cli"
	"spendboard/internal/log"
	promcollector "spendboard/internal/metrics/prometheus"
	"spendboard/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting render-worker", log.FieldOperation, log.OpStartup)

	registry := prometheus.NewRegistry()
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

	accounts := cfg.RenderAccounts()
	w := worker.NewRenderWorker(display, cfg.OutputPath, len(accounts) > 1, cfg.RenderConcurrency)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown error", log.FieldError, err)
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx, accounts, cfg.RenderInterval)
	}()

	if amqpClient != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := amqpClient.ConsumeRenderRequests(ctx, w.HandleRenderRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	go func() {
		logger.Info("Serving worker metrics", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	wg.Wait()
	logger.Info("Worker stopped")
}
