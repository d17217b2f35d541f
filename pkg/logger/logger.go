// Package logger provides the library-wide structured logger, a thin
// interface over zap so callers can substitute their own implementation.
package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging contract used across restcore packages.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// With returns a child logger with additional key/value context.
	With(keyValues ...any) Logger

	Sync() error
	SetLevel(level string) error
}

// Options for custom configuration.
type Options struct {
	Level        string
	Encoding     string // "json" or "console"
	OutputPaths  []string
	ErrorPaths   []string
	EnableCaller bool
	TimeFormat   string
}

// New creates a Logger backed by zap with the given options.
func New(opts Options) (Logger, error) {
	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(opts.Level)); err != nil {
		atomicLevel.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:       "time",
		LevelKey:      "level",
		NameKey:       "logger",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			if opts.TimeFormat != "" {
				enc.AppendString(t.Format(opts.TimeFormat))
			} else {
				enc.AppendString(t.Format(time.RFC3339))
			}
		},
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	if opts.EnableCaller {
		encoderCfg.CallerKey = "caller"
	}

	if opts.Encoding == "" {
		opts.Encoding = "console"
	}
	if len(opts.OutputPaths) == 0 {
		opts.OutputPaths = []string{"stdout"}
	}
	if len(opts.ErrorPaths) == 0 {
		opts.ErrorPaths = []string{"stderr"}
	}

	cfg := zap.Config{
		Level:            atomicLevel,
		Development:      opts.Level == "debug",
		Encoding:         opts.Encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      opts.OutputPaths,
		ErrorOutputPaths: opts.ErrorPaths,
	}

	zl, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}

	return &zapLogger{log: zl.Sugar(), atomicLevel: atomicLevel}, nil
}

// MustNewDefault creates a production-ready console logger quickly.
func MustNewDefault() Logger {
	l, err := New(Options{Level: "info", Encoding: "console", EnableCaller: true})
	if err != nil {
		fmt.Println("failed to init logger:", err)
		os.Exit(1)
	}
	return l
}

// Nop returns a logger that discards everything. Useful as a default
// inside library code where logging is optional.
func Nop() Logger {
	return &zapLogger{log: zap.NewNop().Sugar(), atomicLevel: zap.NewAtomicLevel()}
}

type zapLogger struct {
	log         *zap.SugaredLogger
	atomicLevel zap.AtomicLevel
}

func (l *zapLogger) Debugf(format string, args ...any) { l.log.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }

func (l *zapLogger) With(keyValues ...any) Logger {
	return &zapLogger{log: l.log.With(keyValues...), atomicLevel: l.atomicLevel}
}

func (l *zapLogger) Sync() error { return l.log.Sync() }

func (l *zapLogger) SetLevel(level string) error {
	return l.atomicLevel.UnmarshalText([]byte(level))
}
