// Package log provides the logging abstraction used across the transfer
// subsystem. Components never call a concrete logging library directly;
// they hold a Provider and call through it, so the library backing it can
// be swapped (or silenced) without touching call sites.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Provider is the minimal logging surface every component depends on.
type Provider interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Logger wraps a Provider behind an enable bit, so call sites can format
// and log unconditionally while the cost of a disabled logger stays a
// single atomic load.
type Logger struct {
	provider Provider
	enabled  uint32
}

// New returns a Logger backed by a production zap.Logger, enabled by
// default, scoped under the given component name.
func New(component string) Logger {
	zl, err := zap.NewProduction()
	if err != nil {
		return Logger{provider: NopProvider{}, enabled: 0}
	}
	return Logger{
		provider: &zapProvider{l: zl.Sugar().Named(component)},
		enabled:  1,
	}
}

// NewNop returns a Logger whose calls are always discarded; used as the
// default for components that have not been given a Logger explicitly and
// in tests that don't want log noise.
func NewNop() Logger {
	return Logger{provider: NopProvider{}, enabled: 0}
}

// SetProvider swaps the backing provider. Ignored if p is nil.
func (l *Logger) SetProvider(p Provider) {
	if p != nil {
		l.provider = p
	}
}

// SetEnabled toggles whether log calls reach the provider.
func (l *Logger) SetEnabled(enabled bool) {
	if enabled {
		atomic.StoreUint32(&l.enabled, 1)
	} else {
		atomic.StoreUint32(&l.enabled, 0)
	}
}

func (l Logger) on() bool { return atomic.LoadUint32(&l.enabled) == 1 }

// Debug logs at debug level.
func (l Logger) Debug(format string, v ...interface{}) {
	if l.on() && l.provider != nil {
		l.provider.Debug(format, v...)
	}
}

// Info logs at info level.
func (l Logger) Info(format string, v ...interface{}) {
	if l.on() && l.provider != nil {
		l.provider.Info(format, v...)
	}
}

// Warn logs at warn level.
func (l Logger) Warn(format string, v ...interface{}) {
	if l.on() && l.provider != nil {
		l.provider.Warn(format, v...)
	}
}

// Error logs at error level.
func (l Logger) Error(format string, v ...interface{}) {
	if l.on() && l.provider != nil {
		l.provider.Error(format, v...)
	}
}

// NopProvider discards every call. It is also a valid Provider for tests
// that want to assert nothing panics with logging wired but unconfigured.
type NopProvider struct{}

func (NopProvider) Debug(string, ...interface{}) {}
func (NopProvider) Info(string, ...interface{})  {}
func (NopProvider) Warn(string, ...interface{})  {}
func (NopProvider) Error(string, ...interface{}) {}

type zapProvider struct {
	l *zap.SugaredLogger
}

func (p *zapProvider) Debug(format string, v ...interface{}) { p.l.Debugf(format, v...) }
func (p *zapProvider) Info(format string, v ...interface{})  { p.l.Infof(format, v...) }
func (p *zapProvider) Warn(format string, v ...interface{})  { p.l.Warnf(format, v...) }
func (p *zapProvider) Error(format string, v ...interface{}) { p.l.Errorf(format, v...) }
