package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
	Component  string // optional logger name, e.g. "server" or "cli"
}

// New creates a logger from config. The returned func closes a file output
// and is safe to call when the logger writes to a standard stream.
func New(config Config) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	writer, closeOutput, err := openOutput(config.OutputPath)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(newEncoder(config.Format), writer, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if config.Component != "" {
		logger = logger.Named(config.Component)
	}

	return logger, func() {
		_ = logger.Sync()
		closeOutput()
	}, nil
}

func newEncoder(format string) zapcore.Encoder {
	if format == "json" {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func openOutput(path string) (zapcore.WriteSyncer, func(), error) {
	switch path {
	case "stdout", "":
		return zapcore.Lock(os.Stdout), func() {}, nil
	case "stderr":
		return zapcore.Lock(os.Stderr), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	writer, closeFile, err := zap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output %s: %w", path, err)
	}
	return writer, closeFile, nil
}

// NewDefault creates a console logger at info level
func NewDefault() *zap.Logger {
	logger, _, err := New(Config{Level: "info", Format: "console", OutputPath: "stdout"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewCLI creates a console logger on stderr so command output stays clean.
// verbose lowers the level to debug.
func NewCLI(verbose bool) *zap.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, _, err := New(Config{Level: level, Format: "console", OutputPath: "stderr", Component: "cli"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
