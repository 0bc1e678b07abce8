package main

import (
	"errors"
	"strconv"
	"strings"
)

// Config validation errors
var (
	ErrInvalidTolerance32 = errors.New("tolerance_f32 must be positive")
	ErrInvalidTolerance64 = errors.New("tolerance_f64 must be positive")
	ErrInvalidShapes      = errors.New("shapes must be a comma-separated list of MxNxK triples with positive dimensions")
	ErrInvalidLogFormat   = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel    = errors.New("log_level must be debug, info, warn, or error")
)

// Config is populated from QUIVER_* environment variables.
type Config struct {
	// MetricsAddr exposes /metrics when non-empty, e.g. "0.0.0.0:9090".
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`

	Tolerance32 float64 `envconfig:"TOLERANCE_F32" default:"1e-4"`
	Tolerance64 float64 `envconfig:"TOLERANCE_F64" default:"1e-9"`
	Seed        int64   `envconfig:"SEED" default:"42"`
	Threshold   float64 `envconfig:"THRESHOLD" default:"0"`

	// Shapes is a comma-separated list of MxNxK triples.
	Shapes string `envconfig:"SHAPES" default:"4x3x2,16x32x64,17x33x7,128x128x96"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Shape is one MxNxK sweep point.
type Shape struct {
	M, N, K int
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.Tolerance32 <= 0 {
		return ErrInvalidTolerance32
	}
	if cfg.Tolerance64 <= 0 {
		return ErrInvalidTolerance64
	}
	if _, err := ParseShapes(cfg.Shapes); err != nil {
		return err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	return nil
}

// ParseShapes parses a comma-separated list of MxNxK triples, e.g.
// "4x3x2,16x32x64".
func ParseShapes(s string) ([]Shape, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 0 || s == "" {
		return nil, ErrInvalidShapes
	}
	shapes := make([]Shape, 0, len(parts))
	for _, part := range parts {
		dims := strings.Split(strings.TrimSpace(part), "x")
		if len(dims) != 3 {
			return nil, ErrInvalidShapes
		}
		var vals [3]int
		for i, d := range dims {
			v, err := strconv.Atoi(d)
			if err != nil || v <= 0 {
				return nil, ErrInvalidShapes
			}
			vals[i] = v
		}
		shapes = append(shapes, Shape{M: vals[0], N: vals[1], K: vals[2]})
	}
	return shapes, nil
}
