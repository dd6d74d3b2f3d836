package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tcontctl/internal/document"
	"github.com/danmuck/tcontctl/internal/logging"
	"github.com/rs/zerolog"
)

type fileConfig struct {
	Format          string   `toml:"format"`
	Output          string   `toml:"output"`
	Strict          bool     `toml:"strict"`
	ContinueOnError bool     `toml:"continue_on_error"`
	Workers         int      `toml:"workers"`
	Color           bool     `toml:"color"`
	LogLevel        string   `toml:"log_level"`
	LogFile         string   `toml:"log_file"`
	MetricsFile     string   `toml:"metrics_file"`
	Addr            string   `toml:"addr"`
	CorsOrigins     []string `toml:"cors_origins"`
}

type appConfig struct {
	Format          string
	Output          string
	Strict          bool
	ContinueOnError bool
	Workers         int
	Color           bool
	LogLevel        zerolog.Level
	LogFile         string
	MetricsFile     string
	Addr            string
	CorsOrigins     []string
}

const (
	outputText = "text"
	outputJSON = "json"
)

func defaultConfig() appConfig {
	return appConfig{
		Output:   outputText,
		Workers:  runtime.GOMAXPROCS(0),
		Color:    true,
		LogLevel: zerolog.WarnLevel,
		Addr:     ":9300",
	}
}

func loadConfig(path string) (appConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load tcontctl config: %w", err)
	}

	if meta.IsDefined("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(raw.Format))
	}
	if meta.IsDefined("output") {
		cfg.Output = strings.ToLower(strings.TrimSpace(raw.Output))
	}
	if meta.IsDefined("strict") {
		cfg.Strict = raw.Strict
	}
	if meta.IsDefined("continue_on_error") {
		cfg.ContinueOnError = raw.ContinueOnError
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("color") {
		cfg.Color = raw.Color
	}
	if meta.IsDefined("log_level") {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return appConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = lvl
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = strings.TrimSpace(raw.MetricsFile)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if err := validateConfig(cfg); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func validateConfig(cfg appConfig) error {
	if cfg.Format != "" {
		if _, ok := document.Get(cfg.Format); !ok {
			return fmt.Errorf("config format %q not one of %v", cfg.Format, document.Formats())
		}
	}
	switch cfg.Output {
	case outputText, outputJSON:
	default:
		return fmt.Errorf("config output %q not one of [%s %s]", cfg.Output, outputText, outputJSON)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("config workers must not be negative")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("config missing addr")
	}
	return nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
