package rpcserializer

import (
	"io"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// XDR is the Serializer every procedure in the daemon's own protocol speaks:
// a thin pass-through to rasky/go-xdr's reflection-based Marshal/Unmarshal,
// used wherever a procedure's argument or result struct isn't fixed-width
// enough for the internal/rpcmsg/xdr primitives to hand-roll.
type XDR struct{}

// Marshal encodes v as XDR and writes it to w.
func (XDR) Marshal(w io.Writer, v any) (int, error) {
	return xdr.Marshal(w, v)
}

// Unmarshal decodes an XDR encoding of v from r.
func (XDR) Unmarshal(r io.Reader, v any) (int, error) {
	return xdr.Unmarshal(r, v)
}
