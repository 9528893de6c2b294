package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/shelterpair/internal/config"
)

// loadConfig layers the config file, the environment, and then the
// command's flags over the defaults, and validates the result.
func loadConfig(opts *RootOptions, flags func(*config.Config)) (*config.Config, error) {
	cfg := config.Default()
	source := "defaults"
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		source = opts.Config
	}

	environ := opts.applyEnv
	if environ == nil {
		environ = config.ApplyEnv
	}
	if err := environ(cfg); err != nil {
		return nil, err
	}
	if flags != nil {
		flags(cfg)
	}
	if err := config.Validate(cfg, source); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog logger for a command. --verbose forces debug.
func newLogger(cfg config.Log, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
