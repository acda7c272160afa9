package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"metaed/internal/builder"
	"metaed/internal/config"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	sources    []string
	noSyntax   bool
}

func rootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:           "metaed",
		Short:         "Build the MetaEd semantic model from .metaed sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "metaed.yaml", "Config file path (YAML)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	pf.StringSliceVarP(&f.sources, "source", "s", nil, "Source directory or glob pattern (repeatable)")
	pf.BoolVar(&f.noSyntax, "no-syntax-validation", false, "Skip deprecated syntax warnings")

	cmd.AddCommand(buildCmd(&f), serveCmd(&f), exportCmd(&f))
	return cmd
}

// loadConfig: defaults, YAML, METAED_*, затем флаги.
func loadConfig(cmd *cobra.Command, f *rootFlags, args []string) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if pf.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if pf.Changed("source") {
		cfg.Source.Patterns = f.sources
	}
	if len(args) > 0 {
		cfg.Source.Patterns = args
	}
	if f.noSyntax {
		cfg.Source.SyntaxValidation = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, c config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// setup собирает конфигурацию и логгер для подкоманды.
func setup(cmd *cobra.Command, f *rootFlags, args []string) (config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd, f, args)
	if err != nil {
		return cfg, nil, err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(log)
	return cfg, log, nil
}

func buildModel(ctx context.Context, cfg config.Config, log *slog.Logger, patterns []string) (*builder.Result, error) {
	if len(patterns) == 0 {
		patterns = cfg.Source.Patterns
	}
	return builder.Build(ctx, patterns, builder.Options{
		Logger:           log,
		SyntaxValidation: cfg.Source.SyntaxValidation,
		Concurrency:      cfg.Source.Concurrency,
	})
}
