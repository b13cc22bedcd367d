package openpmd

import (
	"context"
	"log/slog"
	"time"
)

// ReadEvent describes one ReadParticleQuantity call.
type ReadEvent struct {
	File      string
	Species   string
	Quantity  string
	Iteration uint64
	// QueryID ties reads issued for the same higher-level query together.
	QueryID  string
	Elements int
	Duration time.Duration
	Err      error
	// Warnings lists data oddities that did not stop the read.
	Warnings []string
}

// Logger records read events.
type Logger interface {
	LogRead(ReadEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(ReadEvent)

// LogRead implements Logger.
func (f LoggerFunc) LogRead(event ReadEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogRead(ReadEvent) {}

// SlogLogger writes read events to a slog.Logger: failures at error
// level, reads with warnings at warn level and the rest at debug level.
type SlogLogger struct {
	Logger *slog.Logger
}

// NewSlogLogger returns a Logger backed by l, or by slog.Default when l
// is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{Logger: l}
}

// LogRead implements Logger.
func (s *SlogLogger) LogRead(e ReadEvent) {
	attrs := []slog.Attr{
		slog.String("file", e.File),
		slog.String("species", e.Species),
		slog.String("quantity", e.Quantity),
		slog.Uint64("iteration", e.Iteration),
		slog.Int("elements", e.Elements),
		slog.Duration("duration", e.Duration),
	}
	if e.QueryID != "" {
		attrs = append(attrs, slog.String("query", e.QueryID))
	}
	level := slog.LevelDebug
	switch {
	case e.Err != nil:
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	case len(e.Warnings) > 0:
		level = slog.LevelWarn
		attrs = append(attrs, slog.Any("warnings", e.Warnings))
	}
	s.Logger.LogAttrs(context.Background(), level, "openpmd read", attrs...)
}
