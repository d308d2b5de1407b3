// Command logstreamerd runs one broker process: it binds the TCP
// wire-protocol listener, and optionally a Prometheus metrics
// listener, then waits for a shutdown signal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tiagodeliberali/logstreamer/internal/broker"
	"github.com/tiagodeliberali/logstreamer/internal/config"
	"github.com/tiagodeliberali/logstreamer/internal/logging"
	"github.com/tiagodeliberali/logstreamer/internal/metrics"
	"github.com/tiagodeliberali/logstreamer/internal/protocol"
	"github.com/tiagodeliberali/logstreamer/internal/transport"
)

// defaultListenAddress is used when no positional argument is given,
// per spec.md §6's CLI surface.
const defaultListenAddress = "127.0.0.1:8080"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	listenAddress := defaultListenAddress
	if len(args) > 0 {
		listenAddress = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer logger.Sync() //nolint:errcheck

	b := broker.New(logger)
	defer b.Close()

	server := transport.NewServer(listenAddress, b, logger)
	if err := server.Open(); err != nil {
		return errors.Wrapf(err, "bind %s", listenAddress)
	}
	defer server.Close()
	logger.Info("broker listening", zap.String("address", server.Addr().String()))

	var metricsServer *metrics.Server
	if cfg.MetricsAddress != "" {
		collector := metrics.NewCollector(b)
		metricsServer = metrics.NewServer(cfg.MetricsAddress, collector)
		metricsErrCh := make(chan error, 1)
		metricsServer.Open(metricsErrCh)
		logger.Info("metrics listening", zap.String("address", cfg.MetricsAddress))
		go func() {
			if err := <-metricsErrCh; err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	if len(cfg.Brokers) > 0 {
		logger.Info("initializing cluster", zap.Strings("brokers", cfg.Brokers))
		b.Dispatch(&protocol.InitializeController{Brokers: cfg.Brokers}, "")
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-server.Err:
		logger.Error("accept loop failed", zap.Error(err))
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			metricsServer.Close(ctx) //nolint:errcheck
			cancel()
		}
		return err
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Close(ctx); err != nil {
			logger.Error("metrics server shutdown failed", zap.Error(err))
		}
	}

	return nil
}
