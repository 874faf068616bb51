package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where the logger writes.
type Options struct {
	// Level is a zap level name ("debug", "info", "warn", "error").
	Level string
	// Stderr adds a console core on stderr. The TUI leaves this off because
	// it owns the terminal.
	Stderr bool
}

// New creates a zap logger that writes JSON to the given log file path and,
// when requested, console output to stderr. Profile name and PID are included
// as initial fields.
func New(logPath, profile string, opts Options) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level),
	}
	if opts.Stderr {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.Fields(
			zap.String("profile", profile),
			zap.Int("pid", os.Getpid()),
		),
	)

	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
