// Package config loads packtrack settings from PACKTRACK_* environment
// variables. Command-line flags override them in the CLI.
package config

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/packtrack/internal/engine"
)

// Prefix is prepended to every variable name.
const Prefix = "PACKTRACK_"

// Trace exporters.
const (
	TraceNone   = "none"
	TraceStdout = "stdout"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Config holds process configuration.
type Config struct {
	LogLevel      slog.Level `env:"LOG_LEVEL"      envDefault:"info"`
	LogFormat     string     `env:"LOG_FORMAT"     envDefault:"text"`
	TraceExporter string     `env:"TRACE_EXPORTER" envDefault:"none"`
	MaxDepth      int        `env:"MAX_DEPTH"      envDefault:"256"`
	SectionPolicy string     `env:"SECTION_POLICY" envDefault:"own"`
	Journal       string     `env:"JOURNAL"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses vars instead of the process environment. Keys include the
// prefix.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and ranged fields.
func (c Config) Validate() error {
	switch c.LogFormat {
	case LogText, LogJSON:
	default:
		return fmt.Errorf("config: %sLOG_FORMAT must be %q or %q, got %q", Prefix, LogText, LogJSON, c.LogFormat)
	}
	switch c.TraceExporter {
	case TraceNone, TraceStdout:
	default:
		return fmt.Errorf("config: %sTRACE_EXPORTER must be %q or %q, got %q", Prefix, TraceNone, TraceStdout, c.TraceExporter)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("config: %sMAX_DEPTH must be positive, got %d", Prefix, c.MaxDepth)
	}
	if _, err := engine.ParseSectionPolicy(c.SectionPolicy); err != nil {
		return fmt.Errorf("config: %sSECTION_POLICY: %w", Prefix, err)
	}
	return nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EngineOptions translates the resolution settings.
func (c Config) EngineOptions() ([]engine.EngineOption, error) {
	policy, err := engine.ParseSectionPolicy(c.SectionPolicy)
	if err != nil {
		return nil, err
	}
	return []engine.EngineOption{
		engine.WithMaxDepth(c.MaxDepth),
		engine.WithSectionPolicy(policy),
	}, nil
}
