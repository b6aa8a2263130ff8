// Package rpcmsg implements the message object and codec of the
// virtualization management daemon's RPC transport: length framing,
// header/payload (de)serialization via XDR, payload growth-on-overflow,
// owned file-descriptor attachment, queue linkage, and first-error-wins
// error capture.
//
// The package does no I/O of its own. A connection layer (out of scope here)
// reads the length prefix into a Message's buffer, calls DecodeLength to
// learn the remaining size, reads the rest, then DecodeHeader, optionally
// DecodeNumFDs, then DecodePayload with a caller-supplied serializer.
// Sending mirrors this: EncodeHeader, EncodePayload (or EncodePayloadRaw),
// optionally EncodeNumFDs, then the connection layer writes the buffer and
// any attached file descriptors out-of-band.
//
// Nothing here is safe for concurrent use on one Message: exactly one
// goroutine may operate on a given Message at a time. Separate Messages are
// independent.
package rpcmsg

// Wire-format constants. These are protocol constants and must match the
// peer exactly.
const (
	// LenFieldSize is the width of the XDR u32 length prefix on every frame.
	LenFieldSize = 4

	// HeaderXDRLen is the fixed on-wire size of Header: six XDR u32/i32
	// fields (program, version, procedure, type, serial, status), 4 bytes
	// each, no padding since every field is already 4-byte aligned.
	HeaderXDRLen = 24

	// MaxPayload is the largest payload a frame may carry, exclusive of the
	// length field.
	MaxPayload = 33_554_432

	// MaxTotalFrame is the largest total frame size, length field included.
	MaxTotalFrame = MaxPayload + LenFieldSize

	// InitialPayloadCapacity is the starting allocation for an outgoing
	// payload region, beyond the length prefix and header.
	InitialPayloadCapacity = 1024

	// MaxFDs is the largest number of file descriptors a single message may
	// carry.
	MaxFDs = 32
)

// MessageType identifies the kind of RPC message carried by a frame.
type MessageType int32

const (
	TypeCall MessageType = iota
	TypeReply
	TypeMessage
	TypeStream
	TypeCallWithFDs
	TypeReplyWithFDs
	TypeStreamHole
)

// String renders the message type for logging.
func (t MessageType) String() string {
	switch t {
	case TypeCall:
		return "CALL"
	case TypeReply:
		return "REPLY"
	case TypeMessage:
		return "MESSAGE"
	case TypeStream:
		return "STREAM"
	case TypeCallWithFDs:
		return "CALL_WITH_FDS"
	case TypeReplyWithFDs:
		return "REPLY_WITH_FDS"
	case TypeStreamHole:
		return "STREAM_HOLE"
	default:
		return "UNKNOWN"
	}
}

// CarriesFDs reports whether this message type has an out-of-band FD count
// field following the header.
func (t MessageType) CarriesFDs() bool {
	return t == TypeCallWithFDs || t == TypeReplyWithFDs
}

// Status is the RPC-level outcome of a call, carried in the header.
type Status int32

const (
	StatusOK Status = iota
	StatusError
	StatusContinue
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusContinue:
		return "CONTINUE"
	default:
		return "UNKNOWN"
	}
}

// Header is the fixed-layout XDR record at the front of every frame,
// immediately following the length prefix.
type Header struct {
	Program   uint32
	Version   uint32
	Procedure int32
	Type      MessageType
	Serial    uint32
	Status    Status
}
