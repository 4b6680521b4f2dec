// Package adc is the producer side of the intake path: it turns ADC samples
// into little-endian byte blocks and writes them into the intake buffer.
package adc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/randomizedcoder/adcstream/internal/cancel"
	"github.com/randomizedcoder/adcstream/internal/metrics"
	"github.com/randomizedcoder/adcstream/internal/ringbuf"
	"github.com/randomizedcoder/adcstream/internal/tick"
)

// SampleSize is the encoded size of one sample in bytes.
const SampleSize = 2

// statsEvery is how many blocks pass between stats clock reads.
const statsEvery = 64

// Config controls pacing and block size.
type Config struct {
	Rate          float64 // samples per second
	Block         int     // samples per block
	Idle          time.Duration
	StatsInterval time.Duration
}

// Stats is a snapshot of the sampler counters.
type Stats struct {
	Blocks  uint64 // blocks accepted by the buffer
	Dropped uint64 // blocks rejected with ringbuf.ErrFull
}

// Sampler writes blocks of samples into the intake buffer. It owns the
// buffer's write role.
//
// A block is enqueued whole or not at all, so the stream never carries half
// a sample. A block that does not fit is dropped and counted; the sampler
// does not retry.
type Sampler struct {
	w       *ringbuf.Writer[byte]
	src     Source
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics

	block    []byte
	interval time.Duration
	dropping bool

	blocks  atomic.Uint64
	dropped atomic.Uint64
}

// New creates a Sampler writing through w.
func New(w *ringbuf.Writer[byte], src Source, cfg Config, log *zap.Logger, m *metrics.Metrics) (*Sampler, error) {
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("adc: rate must be > 0, got %v", cfg.Rate)
	}
	if cfg.Block < 1 {
		return nil, fmt.Errorf("adc: block must be >= 1, got %d", cfg.Block)
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = tick.DefaultInterval
	}
	return &Sampler{
		w:        w,
		src:      src,
		cfg:      cfg,
		log:      log.Named("adc"),
		metrics:  m,
		block:    make([]byte, SampleSize*cfg.Block),
		interval: BlockInterval(cfg.Rate, cfg.Block),
	}, nil
}

// BlockInterval is the time one block of samples spans at rate.
func BlockInterval(rate float64, block int) time.Duration {
	return time.Duration(math.Round(float64(block) / rate * float64(time.Second)))
}

// Step produces one block and enqueues it. It returns ringbuf.ErrFull when
// the block was dropped.
func (s *Sampler) Step() error {
	for i := 0; i < len(s.block); i += SampleSize {
		binary.LittleEndian.PutUint16(s.block[i:], uint16(s.src.Next()))
	}

	err := s.w.EnqueueSlice(s.block)
	if errors.Is(err, ringbuf.ErrFull) {
		s.dropped.Add(1)
		s.metrics.BlocksDropped.Inc()
		if !s.dropping {
			s.dropping = true
			s.log.Warn("intake buffer full, dropping blocks", zap.Int("free", s.w.Free()))
		}
		return err
	}
	if err != nil {
		return err
	}

	s.blocks.Add(1)
	s.metrics.Samples.Add(float64(s.cfg.Block))
	if s.dropping {
		s.dropping = false
		s.log.Info("intake buffer draining again", zap.Uint64("dropped_total", s.dropped.Load()))
	}
	return nil
}

// Run produces a block every BlockInterval until stop is done. Pacing is
// approximate: a late tick is not made up.
func (s *Sampler) Run(stop cancel.Canceler) error {
	pace := tick.NewAtomicTicker(s.interval)
	defer pace.Stop()
	stats := tick.NewBatch(s.cfg.StatsInterval, statsEvery)
	defer stats.Stop()

	s.log.Info("sampler started",
		zap.Float64("rate", s.cfg.Rate),
		zap.Int("block", s.cfg.Block),
		zap.Duration("interval", s.interval))

	for !stop.Done() {
		if !pace.Tick() {
			idle(min(pace.Until(), s.cfg.Idle))
			continue
		}

		if err := s.Step(); err != nil && !errors.Is(err, ringbuf.ErrFull) {
			return fmt.Errorf("adc: %w", err)
		}

		if stats.Tick() {
			st := s.Stats()
			s.log.Info("sampler stats",
				zap.Uint64("blocks", st.Blocks),
				zap.Uint64("dropped", st.Dropped),
				zap.Int("free", s.w.Free()))
		}
	}

	s.log.Info("sampler stopped", zap.Uint64("blocks", s.blocks.Load()))
	return nil
}

// Stats returns the current counters. Safe to call from any goroutine.
func (s *Sampler) Stats() Stats {
	return Stats{
		Blocks:  s.blocks.Load(),
		Dropped: s.dropped.Load(),
	}
}

func idle(d time.Duration) {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(d)
}
