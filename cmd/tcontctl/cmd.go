package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tcontctl/internal/batch"
	"github.com/danmuck/tcontctl/internal/document"
	"github.com/danmuck/tcontctl/internal/logging"
	"github.com/danmuck/tcontctl/internal/observability"
	"github.com/danmuck/tcontctl/internal/protocol/message"
	"github.com/danmuck/tcontctl/internal/render"
	"github.com/danmuck/tcontctl/internal/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "tcontctl",
		Usage:   "decode fixed-width hex messages from a descriptor document",
		Version: version,
		Commands: []*cli.Command{
			decodeCommand(),
			serveCommand(),
			formatsCommand(),
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML config file",
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "decode every message in a document (\"-\" reads stdin)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "document format, inferred from the extension when empty"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "text or json"},
			&cli.BoolFlag{Name: "strict", Usage: "reject trailing data and malformed blobs"},
			&cli.BoolFlag{Name: "continue", Usage: "report failed records and keep going"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "concurrent record decodes"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable styled output"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn, error or off"},
			&cli.StringFlag{Name: "metrics-file", Usage: "write prometheus metrics to this file on exit"},
		},
		Action: decodeAction,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the decoder over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "listen address"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn, error or off"},
		},
		Action: serveAction,
	}
}

func formatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "list supported document formats",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, f := range document.Formats() {
				fmt.Fprintln(stdout(cmd), f)
			}
			return nil
		},
	}
}

// resolveConfig loads --config when given and applies explicit flags on top.
func resolveConfig(cmd *cli.Command) (appConfig, error) {
	cfg := defaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := loadConfig(path)
		if err != nil {
			return appConfig{}, err
		}
		cfg = loaded
	}

	if cmd.IsSet("format") {
		cfg.Format = cmd.String("format")
	}
	if cmd.IsSet("output") {
		cfg.Output = cmd.String("output")
	}
	if cmd.IsSet("strict") {
		cfg.Strict = cmd.Bool("strict")
	}
	if cmd.IsSet("continue") {
		cfg.ContinueOnError = cmd.Bool("continue")
	}
	if cmd.IsSet("workers") {
		cfg.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("no-color") {
		cfg.Color = !cmd.Bool("no-color")
	}
	if cmd.IsSet("metrics-file") {
		cfg.MetricsFile = cmd.String("metrics-file")
	}
	if cmd.IsSet("addr") {
		cfg.Addr = cmd.String("addr")
	}
	if cmd.IsSet("log-level") {
		lvl, ok := logging.ParseLevel(cmd.String("log-level"))
		if !ok {
			return appConfig{}, fmt.Errorf("unknown log level %q", cmd.String("log-level"))
		}
		cfg.LogLevel = lvl
	}
	if err := validateConfig(cfg); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func setupLogger(cmd *cli.Command, cfg appConfig) zerolog.Logger {
	lc := logging.DefaultConfig(logging.ProfileRuntime)
	lc.Level = cfg.LogLevel
	lc.File = cfg.LogFile
	lc.Out = stderr(cmd)
	return logging.Apply(lc)
}

func batchOptions(cfg appConfig) batch.Options {
	return batch.Options{
		Workers:         cfg.Workers,
		ContinueOnError: cfg.ContinueOnError,
		Message:         message.Options{Strict: cfg.Strict},
	}
}

func decodeAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("decode: missing document path")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)

	records, err := document.Load(path, cfg.Format)
	if err != nil {
		return err
	}
	logger.Debug().Str("path", path).Int("records", len(records)).Msg("document loaded")

	report, runErr := batch.NewDriver(batchOptions(cfg)).WithLogger(logger).Run(ctx, records)

	var w render.Writer
	switch cfg.Output {
	case outputJSON:
		w = render.NewJSON(stdout(cmd), true)
	default:
		w = render.NewText(stdout(cmd), cfg.Color)
	}
	if err := w.Write(report.Results); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error().Err(err).Str("path", cfg.MetricsFile).Msg("metrics write failed")
		}
	}
	if runErr != nil {
		return runErr
	}
	if report.Failed > 0 {
		return fmt.Errorf("decode: %d of %d records failed", report.Failed, len(report.Results))
	}
	return nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)
	srv := server.New(server.Config{
		Addr:        cfg.Addr,
		CorsOrigins: cfg.CorsOrigins,
		Batch:       batchOptions(cfg),
	}, logger)
	return srv.Serve(ctx)
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
