package rpcmsg

import "fmt"

// Kind classifies a codec failure by domain: malformed wire data vs. API
// misuse vs. OS failure.
type Kind int32

const (
	// KindOK is the success sentinel used in ErrorRecord, never returned as
	// a failure Kind from a codec operation.
	KindOK Kind = iota

	// KindProtocol covers malformed wire data: length out of bounds, XDR
	// deserialize failure, too many FDs, payload that won't fit.
	KindProtocol

	// KindInternal covers API misuse: decoding a header before the length
	// has been received, an out-of-range FD slot.
	KindInternal

	// KindSystem covers OS failures: dup, close-on-exec.
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindProtocol:
		return "PROTOCOL"
	case KindInternal:
		return "INTERNAL"
	case KindSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// CodecError is the error type every codec operation fails with. It carries
// a Kind so callers (and ErrorCapture) can distinguish protocol violations
// from internal misuse from OS-level failures, and wraps the underlying
// cause for errors.Is/As.
type CodecError struct {
	Kind Kind
	Op   string // operation that failed, e.g. "decode_length"
	Msg  string
	Err  error // underlying cause, may be nil
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Code returns the numeric kind, satisfying the same Code()/Message()/
// Unwrap() shape the rest of the codebase uses for protocol errors.
func (e *CodecError) Code() int32 {
	return int32(e.Kind)
}

func (e *CodecError) Message() string {
	return e.Error()
}

func newProtocolError(op, msg string, cause error) *CodecError {
	return &CodecError{Kind: KindProtocol, Op: op, Msg: msg, Err: cause}
}

func newInternalError(op, msg string) *CodecError {
	return &CodecError{Kind: KindInternal, Op: op, Msg: msg}
}

func newSystemError(op, msg string, cause error) *CodecError {
	return &CodecError{Kind: KindSystem, Op: op, Msg: msg, Err: cause}
}
