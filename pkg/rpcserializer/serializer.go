// Package rpcserializer defines the payload (de)serialization contract the
// message codec uses for the variable body of an RPC call, reply, or
// message-type frame, and provides the XDR implementation the virtualization
// management daemon's own procedures speak.
package rpcserializer

import "io"

// Serializer marshals and unmarshals a payload value to/from XDR-framed
// bytes. rpcmsg.PayloadCodec treats the payload body as opaque and delegates
// all of its structure to a Serializer supplied by the caller: the codec
// itself never knows the shape of any individual procedure's arguments or
// return value.
type Serializer interface {
	// Marshal writes v's XDR encoding to w and returns the number of bytes
	// written.
	Marshal(w io.Writer, v any) (int, error)

	// Unmarshal reads an XDR encoding of v from r and returns the number of
	// bytes consumed.
	Unmarshal(r io.Reader, v any) (int, error)
}
