// Package config loads playback settings with viper.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML
// file, then PLAYBACK_* environment variables (PLAYBACK_TIMING_THINK_MS
// for timing.think_ms). Unknown keys in the file are rejected.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/playback/internal/engine"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PLAYBACK"

// Config is the decoded configuration.
type Config struct {
	Timing Timing `mapstructure:"timing" json:"timing"`
	Log    Log    `mapstructure:"log" json:"log"`
}

// Timing holds engine delays in milliseconds.
type Timing struct {
	ThinkMS          int `mapstructure:"think_ms" json:"think_ms"`
	ReplyMS          int `mapstructure:"reply_ms" json:"reply_ms"`
	ProcessStartMS   int `mapstructure:"process_start_ms" json:"process_start_ms"`
	ProcessCadenceMS int `mapstructure:"process_cadence_ms" json:"process_cadence_ms"`
	ProcessSettleMS  int `mapstructure:"process_settle_ms" json:"process_settle_ms"`
}

// Log holds logging settings.
type Log struct {
	Level string `mapstructure:"level" json:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	t := engine.DefaultTiming()
	return Config{
		Timing: Timing{
			ThinkMS:          int(t.ThinkDelay / time.Millisecond),
			ReplyMS:          int(t.ReplyDelay / time.Millisecond),
			ProcessStartMS:   int(t.ProcessStart / time.Millisecond),
			ProcessCadenceMS: int(t.ProcessCadence / time.Millisecond),
			ProcessSettleMS:  int(t.ProcessSettle / time.Millisecond),
		},
		Log: Log{Level: "info"},
	}
}

// New returns a viper instance with defaults and environment overrides
// configured. Callers may bind flags to it before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("timing.think_ms", d.Timing.ThinkMS)
	v.SetDefault("timing.reply_ms", d.Timing.ReplyMS)
	v.SetDefault("timing.process_start_ms", d.Timing.ProcessStartMS)
	v.SetDefault("timing.process_cadence_ms", d.Timing.ProcessCadenceMS)
	v.SetDefault("timing.process_settle_ms", d.Timing.ProcessSettleMS)
	v.SetDefault("log.level", d.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (when not empty) on top of the defaults and environment.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects negative delays and unknown log levels.
func (c Config) Validate() error {
	var errs []error
	for _, d := range []struct {
		key string
		ms  int
	}{
		{"timing.think_ms", c.Timing.ThinkMS},
		{"timing.reply_ms", c.Timing.ReplyMS},
		{"timing.process_start_ms", c.Timing.ProcessStartMS},
		{"timing.process_cadence_ms", c.Timing.ProcessCadenceMS},
		{"timing.process_settle_ms", c.Timing.ProcessSettleMS},
	} {
		if d.ms < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", d.key, d.ms))
		}
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EngineTiming converts the millisecond settings to engine.Timing.
func (t Timing) EngineTiming() engine.Timing {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return engine.Timing{
		ThinkDelay:     ms(t.ThinkMS),
		ReplyDelay:     ms(t.ReplyMS),
		ProcessStart:   ms(t.ProcessStartMS),
		ProcessCadence: ms(t.ProcessCadenceMS),
		ProcessSettle:  ms(t.ProcessSettleMS),
	}
}

// SlogLevel parses the level name.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
