// Command newsgather-daemon polls enabled sources on their intervals and
// writes each run's results to the outbox.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pevans/newsgather/app"
	"github.com/pevans/newsgather/config"
	"github.com/pevans/newsgather/logger"
)

const shutdownTimeout = 60 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file (default ~/.newsgather/config.yaml)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address, overrides metrics_addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.Open(cfg, app.WithRegisterer(reg))
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.Log

	log.Info("starting daemon",
		logger.String("sources", cfg.Storage.SourcesDSN),
		logger.String("outbox", cfg.Storage.OutboxDir),
		logger.Int("topics", len(cfg.Topics)),
		logger.Duration("poll_interval", cfg.Runner.PollInterval),
		logger.Int("concurrency", cfg.Runner.Concurrency))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metricsServer *http.Server
	errChan := make(chan error, 2)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	done := make(chan error, 1)
	go func() {
		done <- a.Runner.Run(ctx)
	}()

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				// Sources are read from the store on every tick.
				log.Info("SIGHUP received, nothing to reload")
				continue
			}

			log.Info("shutting down", logger.String("signal", sig.String()))
			cancel()
			a.Runner.Stop()
			shutdownMetrics(metricsServer, log)

			timer := time.NewTimer(shutdownTimeout)
			defer timer.Stop()
			select {
			case <-done:
				log.Info("runner stopped")
			case <-timer.C:
				log.Warn("shutdown timeout exceeded, forcing exit")
			}
			return nil

		case err := <-errChan:
			cancel()
			a.Runner.Stop()
			<-done
			return err

		case err := <-done:
			shutdownMetrics(metricsServer, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("runner: %w", err)
			}
			return nil
		}
	}
}

func shutdownMetrics(server *http.Server, log logger.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown failed", logger.Error(err))
	}
}
