package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context that is threaded through
// the event loop so every log line from a single dispatch carries the same
// correlation fields.
type LogContext struct {
	TraceID   string // OpenTelemetry trace ID
	SpanID    string // OpenTelemetry span ID
	Subsystem string // component name: aggregator, dpi, steer
	StaMAC    string // station MAC, when the event concerns a particular client
	StartTime time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a given subsystem.
func NewLogContext(subsystem string) *LogContext {
	return &LogContext{
		Subsystem: subsystem,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		Subsystem: lc.Subsystem,
		StaMAC:    lc.StaMAC,
		StartTime: lc.StartTime,
	}
}

// WithSubsystem returns a copy with the subsystem set
func (lc *LogContext) WithSubsystem(subsystem string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Subsystem = subsystem
	}
	return clone
}

// WithSTA returns a copy with the station MAC set
func (lc *LogContext) WithSTA(staMAC string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.StaMAC = staMAC
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
