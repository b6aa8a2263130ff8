package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for an in-flight RPC
// message. Fields mirror the RPC header rather than any particular wire
// protocol's operation set, since this logger serves the transport layer.
type LogContext struct {
	TraceID    string    // OpenTelemetry trace ID
	SpanID     string    // OpenTelemetry span ID
	Program    uint32    // RPC program number
	Procedure  int32     // RPC procedure number
	Serial     uint32    // RPC serial/XID pairing a call with its reply
	ClientAddr string    // Peer address
	StartTime  time.Time // For duration calculation
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

// NewLogContext creates a new LogContext with the given client address
func NewLogContext(clientAddr string) *LogContext {
	return &LogContext{
		ClientAddr: clientAddr,
		StartTime:  time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:    lc.TraceID,
		SpanID:     lc.SpanID,
		Program:    lc.Program,
		Procedure:  lc.Procedure,
		Serial:     lc.Serial,
		ClientAddr: lc.ClientAddr,
		StartTime:  lc.StartTime,
	}
}

// WithHeader returns a copy with the program/procedure/serial set from a
// decoded RPC header.
func (lc *LogContext) WithHeader(program uint32, procedure int32, serial uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Program = program
		clone.Procedure = procedure
		clone.Serial = serial
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
