package log_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/log"
)

type recordingProvider struct {
	lines []string
}

func (r *recordingProvider) Debug(format string, v ...interface{}) {
	r.lines = append(r.lines, "DEBUG:"+fmt.Sprintf(format, v...))
}
func (r *recordingProvider) Info(format string, v ...interface{}) {
	r.lines = append(r.lines, "INFO:"+fmt.Sprintf(format, v...))
}
func (r *recordingProvider) Warn(format string, v ...interface{}) {
	r.lines = append(r.lines, "WARN:"+fmt.Sprintf(format, v...))
}
func (r *recordingProvider) Error(format string, v ...interface{}) {
	r.lines = append(r.lines, "ERROR:"+fmt.Sprintf(format, v...))
}

func TestLoggerRoutesThroughProvider(t *testing.T) {
	l := log.NewNop()
	rec := &recordingProvider{}
	l.SetProvider(rec)
	l.SetEnabled(true)

	l.Info("hello %s", "world")
	l.Error("boom %d", 42)

	require.Equal(t, []string{"INFO:hello world", "ERROR:boom 42"}, rec.lines)
}

func TestLoggerDisabledSuppressesCalls(t *testing.T) {
	l := log.NewNop()
	rec := &recordingProvider{}
	l.SetProvider(rec)
	l.SetEnabled(false)

	l.Info("should not appear")

	require.Empty(t, rec.lines)
}

func TestNopProviderNeverPanics(t *testing.T) {
	require.NotPanics(t, func() {
		var p log.NopProvider
		p.Debug("x")
		p.Info("x")
		p.Warn("x")
		p.Error("x")
	})
}
