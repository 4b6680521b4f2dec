// Package stream is the consumer side of the intake path: a TCP server that
// drains the intake buffer to one connected client at a time.
//
// The wire format is the raw buffer content, which the sampler fills with
// little-endian int16 samples. Clients read as many bytes as they want and
// hang up.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/randomizedcoder/adcstream/internal/adc"
	"github.com/randomizedcoder/adcstream/internal/cancel"
	"github.com/randomizedcoder/adcstream/internal/metrics"
	"github.com/randomizedcoder/adcstream/internal/ringbuf"
	"github.com/randomizedcoder/adcstream/internal/tick"
)

// Config controls the server.
type Config struct {
	Addr  string
	Chunk int // bytes moved per dequeue, a whole number of samples

	// Poll is the sleep between dequeues that found nothing.
	Poll         time.Duration
	WriteTimeout time.Duration

	// DrainOnConnect discards what was buffered before the client arrived.
	DrainOnConnect bool

	StatsInterval time.Duration
}

// Server streams the intake buffer to TCP clients. It owns the buffer's read
// role, so clients are served strictly one after another; later
// connections wait in the accept backlog.
type Server struct {
	r       *ringbuf.Reader[byte]
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics
	buf     []byte
}

// New creates a Server reading through r.
func New(r *ringbuf.Reader[byte], cfg Config, log *zap.Logger, m *metrics.Metrics) (*Server, error) {
	// An odd chunk can end a session mid-sample and shift every sample the
	// next client reads.
	if cfg.Chunk < adc.SampleSize || cfg.Chunk%adc.SampleSize != 0 {
		return nil, fmt.Errorf("stream: chunk must be a positive multiple of %d, got %d", adc.SampleSize, cfg.Chunk)
	}
	if cfg.Poll <= 0 {
		return nil, fmt.Errorf("stream: poll must be > 0, got %v", cfg.Poll)
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = tick.DefaultInterval
	}
	return &Server{
		r:       r,
		cfg:     cfg,
		log:     log.Named("stream"),
		metrics: m,
		buf:     make([]byte, cfg.Chunk),
	}, nil
}

// ListenAndServe listens on cfg.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("stream: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts clients on ln until ctx is done, then returns nil. ln is
// closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.Info("stream listening", zap.Stringer("addr", ln.Addr()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("stream: accept: %w", err)
		}
		s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	log := s.log.With(zap.Stringer("remote", conn.RemoteAddr()))

	sess := cancel.NewContext(ctx)
	defer sess.Cancel()
	// Unblocks a pending Write on shutdown.
	stopClose := context.AfterFunc(sess.Context(), func() { conn.Close() })
	defer stopClose()
	defer conn.Close()

	s.metrics.StreamClients.Inc()
	defer s.metrics.StreamClients.Dec()

	if s.cfg.DrainOnConnect {
		log.Info("stream client connected", zap.Int("discarded", s.drain()))
	} else {
		log.Info("stream client connected")
	}

	stats := tick.NewTicker(s.cfg.StatsInterval)
	defer stats.Stop()

	var sent, since uint64
	for !sess.Done() {
		n := s.r.DequeueInto(s.buf)
		if n == 0 {
			time.Sleep(s.cfg.Poll)
			continue
		}

		if s.cfg.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if _, err := conn.Write(s.buf[:n]); err != nil {
			// The chunk in flight is lost with the client.
			log.Info("stream client gone", zap.Uint64("sent", sent), zap.Error(err))
			return
		}
		sent += uint64(n)
		since += uint64(n)
		s.metrics.StreamBytes.Add(float64(n))

		if stats.Tick() {
			log.Info("stream stats",
				zap.Uint64("sent", sent),
				zap.Float64("bytes_per_sec", float64(since)/s.cfg.StatsInterval.Seconds()),
				zap.Int("buffered", s.r.Len()))
			since = 0
		}
	}
	log.Info("stream client closed on shutdown", zap.Uint64("sent", sent))
}

// drain discards what is buffered right now and returns the byte count.
// The writer only adds whole blocks, so this never splits a sample.
func (s *Server) drain() int {
	left := s.r.Len()
	total := 0
	for left > 0 {
		n := s.r.DequeueInto(s.buf[:min(left, len(s.buf))])
		if n == 0 {
			break
		}
		left -= n
		total += n
	}
	return total
}
