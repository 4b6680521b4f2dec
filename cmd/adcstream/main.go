// Command adcstream samples a (synthetic) ADC into a fixed-size intake ring
// buffer and streams the raw little-endian int16 samples to a TCP client.
//
// Usage:
//
//	go run ./cmd/adcstream -config adcstream.yaml
//
// Every setting can also be given as an ADCSTREAM_* environment variable,
// e.g. ADCSTREAM_STREAM_ADDR=:1236.
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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/adcstream/internal/adc"
	"github.com/randomizedcoder/adcstream/internal/cancel"
	"github.com/randomizedcoder/adcstream/internal/config"
	"github.com/randomizedcoder/adcstream/internal/control"
	"github.com/randomizedcoder/adcstream/internal/dac"
	"github.com/randomizedcoder/adcstream/internal/iir"
	"github.com/randomizedcoder/adcstream/internal/logging"
	"github.com/randomizedcoder/adcstream/internal/metrics"
	"github.com/randomizedcoder/adcstream/internal/ringbuf"
	"github.com/randomizedcoder/adcstream/internal/stream"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("adcstream failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// The one intake buffer for the life of the process. Its write role goes
	// to the sampler and its read role to the stream server.
	intake := ringbuf.New[byte](cfg.Ring.Capacity)
	w, r, err := intake.Split()
	if err != nil {
		return err
	}
	m.WatchRing(intake.Len, intake.Cap())

	src := adc.NewNoiseSource(cfg.Sampler.Seed, cfg.Sampler.Offset, cfg.Sampler.Amplitude)
	sampler, err := adc.New(w, src, adc.Config{
		Rate:          cfg.Sampler.Rate,
		Block:         cfg.Sampler.Block,
		Idle:          cfg.Sampler.Idle,
		StatsInterval: cfg.Sampler.StatsInterval,
	}, logger, m)
	if err != nil {
		return err
	}

	streamer, err := stream.New(r, stream.Config{
		Addr:           cfg.Stream.Addr,
		Chunk:          cfg.Stream.Chunk,
		Poll:           cfg.Stream.Poll,
		WriteTimeout:   cfg.Stream.WriteTimeout,
		DrainOnConnect: cfg.Stream.DrainOnConnect,
		StatsInterval:  cfg.Stream.StatsInterval,
	}, logger, m)
	if err != nil {
		return err
	}

	ctrl := control.New(dac.NewBank(cfg.Control.Channels), iir.NewBank(cfg.Control.Channels), cfg.Control.ReadTimeout, logger, m)

	logger.Info("adcstream starting",
		zap.Int("ring_capacity", intake.Cap()),
		zap.String("stream", cfg.Stream.Addr),
		zap.String("control", cfg.Control.Addr),
		zap.String("metrics", cfg.Metrics.Addr))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stopSampler := cancel.NewAtomic()
		defer cancel.Bind(ctx, stopSampler)()
		return sampler.Run(stopSampler)
	})
	g.Go(func() error {
		return streamer.ListenAndServe(ctx)
	})
	g.Go(func() error {
		return ctrl.ListenAndServe(ctx, cfg.Control.Addr)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.Metrics, reg, logger)
		})
	}

	err = g.Wait()
	logger.Info("adcstream stopped", zap.Any("sampler", sampler.Stats()))
	return err
}

func serveMetrics(ctx context.Context, cfg config.MetricsConfig, g prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler(g))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
