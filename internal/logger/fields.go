package logger

import "log/slog"

// Standard field keys for structured logging across the codec and its
// supporting transport. Use these keys consistently across log statements so
// the same field always means the same thing.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// RPC header fields
	KeyProgram   = "program"   // RPC program number
	KeyProcedure = "procedure" // RPC procedure number
	KeySerial    = "serial"    // RPC serial/XID
	KeyStatus    = "status"    // RPC status code

	// Framing & payload
	KeySize       = "size"        // Byte count (frame, payload, buffer)
	KeyOffset     = "offset"      // Buffer read/write cursor
	KeyNumFDs     = "num_fds"     // File descriptor count attached to a message
	KeyAttempt    = "attempt"     // Payload-encode grow attempt number
	KeyMaxRetries = "max_retries" // Cap on grow attempts before giving up

	// Connection identification
	KeyClientAddr   = "client_addr"   // Peer address
	KeyConnectionID = "connection_id" // Connection identifier

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Program returns a slog.Attr for RPC program number
func Program(p uint32) slog.Attr {
	return slog.Any(KeyProgram, p)
}

// Procedure returns a slog.Attr for RPC procedure number
func Procedure(p int32) slog.Attr {
	return slog.Any(KeyProcedure, p)
}

// Serial returns a slog.Attr for RPC serial/XID
func Serial(s uint32) slog.Attr {
	return slog.Any(KeySerial, s)
}

// Status returns a slog.Attr for RPC status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Size returns a slog.Attr for a byte count
func Size(n int) slog.Attr {
	return slog.Int(KeySize, n)
}

// Offset returns a slog.Attr for a buffer offset
func Offset(off int) slog.Attr {
	return slog.Int(KeyOffset, off)
}

// NumFDs returns a slog.Attr for an attached file descriptor count
func NumFDs(n int) slog.Attr {
	return slog.Int(KeyNumFDs, n)
}

// Attempt returns a slog.Attr for a grow/retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// ClientAddr returns a slog.Attr for the peer address
func ClientAddr(addr string) slog.Attr {
	return slog.String(KeyClientAddr, addr)
}

// ConnectionID returns a slog.Attr for a connection identifier
func ConnectionID(id uint64) slog.Attr {
	return slog.Uint64(KeyConnectionID, id)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}
