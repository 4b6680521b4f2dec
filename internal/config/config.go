// Package config loads adcstream settings from defaults, an optional YAML
// file and ADCSTREAM_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/randomizedcoder/adcstream/internal/adc"
)

// EnvPrefix prefixes every environment override, e.g. ADCSTREAM_STREAM_ADDR.
const EnvPrefix = "ADCSTREAM"

// Config is the full process configuration.
type Config struct {
	Ring    RingConfig    `mapstructure:"ring"`
	Sampler SamplerConfig `mapstructure:"sampler"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Control ControlConfig `mapstructure:"control"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// RingConfig sizes the intake buffer.
type RingConfig struct {
	// Capacity is the slot count; Capacity-1 bytes can be buffered.
	Capacity int `mapstructure:"capacity"`
}

// SamplerConfig drives the synthetic ADC source.
type SamplerConfig struct {
	Rate          float64       `mapstructure:"rate"` // samples per second
	Block         int           `mapstructure:"block"`
	Seed          uint32        `mapstructure:"seed"`
	Offset        int           `mapstructure:"offset"`
	Amplitude     int           `mapstructure:"amplitude"`
	Idle          time.Duration `mapstructure:"idle"`
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

// StreamConfig configures the sample stream server.
type StreamConfig struct {
	Addr           string        `mapstructure:"addr"`
	Chunk          int           `mapstructure:"chunk"`
	Poll           time.Duration `mapstructure:"poll"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	DrainOnConnect bool          `mapstructure:"drain_on_connect"`
	StatsInterval  time.Duration `mapstructure:"stats_interval"`
}

// ControlConfig configures the DAC control server.
type ControlConfig struct {
	Addr        string        `mapstructure:"addr"`
	Channels    int           `mapstructure:"channels"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ring.capacity", 1024)

	v.SetDefault("sampler.rate", 100_000.0)
	v.SetDefault("sampler.block", 64)
	v.SetDefault("sampler.seed", 1)
	v.SetDefault("sampler.offset", 0)
	v.SetDefault("sampler.amplitude", 64)
	v.SetDefault("sampler.idle", "100us")
	v.SetDefault("sampler.stats_interval", "10s")

	v.SetDefault("stream.addr", ":1236")
	v.SetDefault("stream.chunk", 512)
	v.SetDefault("stream.poll", "200us")
	v.SetDefault("stream.write_timeout", "2s")
	v.SetDefault("stream.drain_on_connect", true)
	v.SetDefault("stream.stats_interval", "10s")

	v.SetDefault("control.addr", ":1235")
	v.SetDefault("control.channels", 2)
	v.SetDefault("control.read_timeout", "1m")

	v.SetDefault("metrics.addr", ":9102")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Ring.Capacity < 2 {
		errs = append(errs, fmt.Errorf("ring.capacity must be >= 2, got %d", c.Ring.Capacity))
	}
	if c.Sampler.Rate <= 0 {
		errs = append(errs, fmt.Errorf("sampler.rate must be > 0, got %v", c.Sampler.Rate))
	}
	if c.Sampler.Block < 1 {
		errs = append(errs, fmt.Errorf("sampler.block must be >= 1, got %d", c.Sampler.Block))
	}
	// A block must fit or every enqueue would be rejected.
	if blockBytes := adc.SampleSize * c.Sampler.Block; c.Ring.Capacity >= 2 && blockBytes > c.Ring.Capacity-1 {
		errs = append(errs, fmt.Errorf("sampler.block of %d bytes exceeds ring capacity %d", blockBytes, c.Ring.Capacity-1))
	}
	if c.Sampler.Amplitude < 0 {
		errs = append(errs, fmt.Errorf("sampler.amplitude must be >= 0, got %d", c.Sampler.Amplitude))
	}
	if c.Stream.Addr == "" {
		errs = append(errs, errors.New("stream.addr must be set"))
	}
	if c.Stream.Chunk < adc.SampleSize || c.Stream.Chunk%adc.SampleSize != 0 {
		errs = append(errs, fmt.Errorf("stream.chunk must be a positive multiple of %d, got %d", adc.SampleSize, c.Stream.Chunk))
	}
	if c.Stream.Poll <= 0 {
		errs = append(errs, fmt.Errorf("stream.poll must be > 0, got %v", c.Stream.Poll))
	}
	if c.Control.Channels < 1 {
		errs = append(errs, fmt.Errorf("control.channels must be >= 1, got %d", c.Control.Channels))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
