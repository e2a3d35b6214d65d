package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level string // debug, info, warn, error
	// Encoding is "console" or "json".
	Encoding string
	// OutputPath defaults to stderr. The TUI sends logs to a file so they
	// do not tear the dashboard.
	OutputPath string
}

// New builds the process logger. The console encoder keeps the
// per-iteration move lines readable in a terminal.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	encoding := opts.Encoding
	if encoding == "" {
		encoding = "console"
	}
	if encoding != "console" && encoding != "json" {
		return nil, fmt.Errorf("invalid log encoding %q", encoding)
	}

	out := opts.OutputPath
	if out == "" {
		out = "stderr"
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	if encoding == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cfg := zap.Config{
		Level:            level,
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{out},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}
