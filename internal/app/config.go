package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TreePaths []string // hcl files or directories

	Workers    int
	Blocks     int
	BlockSize  int
	SampleRate float64

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	Dump      string // "", "hcl" or "json"
	CheckOnly bool
	ReportURL string
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.TreePaths) == 0 {
		return nil, errors.New("TreePaths is a required configuration field and cannot be empty")
	}
	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", cfg.BlockSize)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", cfg.SampleRate)
	}
	if cfg.Blocks < 0 {
		return nil, fmt.Errorf("block count must not be negative, got %d", cfg.Blocks)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", cfg.Workers)
	}
	switch cfg.Dump {
	case "", "hcl", "json":
	default:
		return nil, fmt.Errorf("invalid dump format %q: must be 'hcl' or 'json'", cfg.Dump)
	}

	return &cfg, nil
}
