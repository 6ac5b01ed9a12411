// Package ddblog is the structured logging facade used across carpenter.
package ddblog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(msg string, keyAndValues ...any)
	Info(msg string, keyAndValues ...any)
	Warn(msg string, keyAndValues ...any)
	Error(msg string, keyAndValues ...any)
}

type ZapLogger struct {
	inner *zap.SugaredLogger
}

func NewZapLogger(log *zap.Logger) ZapLogger {
	return ZapLogger{inner: log.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() ZapLogger {
	return NewZapLogger(zap.NewNop())
}

// NewConsole builds a human readable logger writing to stderr.
// Only warnings and errors are shown unless verbose is set.
func NewConsole(verbose bool) (ZapLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return ZapLogger{}, fmt.Errorf("build logger: %w", err)
	}
	return NewZapLogger(l), nil
}

func (l ZapLogger) Debug(msg string, keyAndValues ...any) {
	l.inner.Debugw(msg, keyAndValues...)
}

func (l ZapLogger) Info(msg string, keyAndValues ...any) {
	l.inner.Infow(msg, keyAndValues...)
}

func (l ZapLogger) Warn(msg string, keyAndValues ...any) {
	l.inner.Warnw(msg, keyAndValues...)
}

func (l ZapLogger) Error(msg string, keyAndValues ...any) {
	l.inner.Errorw(msg, keyAndValues...)
}

// Sync flushes buffered log entries.
func (l ZapLogger) Sync() error {
	return l.inner.Sync()
}

// Badger exposes the logger in the printf style badger expects.
func (l ZapLogger) Badger() BadgerLogger {
	return BadgerLogger{inner: l.inner.Named("badger")}
}

// BadgerLogger implements badger.Logger.
type BadgerLogger struct {
	inner *zap.SugaredLogger
}

func (b BadgerLogger) Errorf(format string, args ...any) {
	b.inner.Errorf(format, args...)
}

func (b BadgerLogger) Warningf(format string, args ...any) {
	b.inner.Warnf(format, args...)
}

func (b BadgerLogger) Infof(format string, args ...any) {
	b.inner.Debugf(format, args...)
}

func (b BadgerLogger) Debugf(format string, args ...any) {
	b.inner.Debugf(format, args...)
}
