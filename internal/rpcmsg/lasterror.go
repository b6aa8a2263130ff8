package rpcmsg

import (
	"context"
	"errors"
)

// ErrorRecord is a structured, serializable snapshot of a failure, suitable
// for putting on the wire as an RPC error reply payload.
type ErrorRecord struct {
	Code    int32
	Domain  int32
	Level   int32
	Int1    int32
	Int2    int32
	Message string
	Str1    string
	Str2    string
	Str3    string
}

// errorLevel distinguishes informational, warning, and error severities;
// only Error is ever produced by SaveError today, but the field exists so
// a richer runtime can populate it.
const (
	errorLevelNone  int32 = 0
	errorLevelWarn  int32 = 1
	errorLevelError int32 = 2
)

type lastErrorKey struct{}

// WithLastError attaches err as the context's "thread-local" last reported
// error. C callers of this protocol rely on a genuine per-thread global; Go
// has no equivalent storage, and this codec already requires at most one
// goroutine touch a given Message at a time (see package doc), so a
// context.Context-scoped value plays the same role: it is set once at the
// point of failure and read back by SaveError before any cleanup path has a
// chance to clobber it.
func WithLastError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, lastErrorKey{}, err)
}

func lastErrorFromContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	err, _ := ctx.Value(lastErrorKey{}).(error)
	return err
}

// SaveError populates rec from the error carried on ctx (see WithLastError).
//
// If rec.Code is already nonzero, a previous error was already saved and
// this call is a no-op: the first error wins, so a cleanup path run after a
// failure cannot overwrite the true cause. If ctx carries no error, rec is
// filled with an internal-error sentinel noting the absence, matching
// virNetMessageSaveError's behavior when virGetLastError() returns nil.
func SaveError(ctx context.Context, rec *ErrorRecord) {
	if rec.Code != int32(KindOK) {
		return
	}

	err := lastErrorFromContext(ctx)
	if err == nil {
		rec.Code = int32(KindInternal)
		rec.Domain = int32(KindInternal)
		rec.Level = errorLevelError
		rec.Message = "library function returned error but did not set context error"
		return
	}

	var ce *CodecError
	if errors.As(err, &ce) {
		rec.Code = int32(ce.Kind)
		rec.Domain = int32(ce.Kind)
		rec.Level = errorLevelError
		rec.Message = ce.Error()
		rec.Str1 = ce.Op
		rec.Str2 = ce.Msg
		return
	}

	rec.Code = int32(KindInternal)
	rec.Domain = int32(KindInternal)
	rec.Level = errorLevelError
	rec.Message = err.Error()
}
