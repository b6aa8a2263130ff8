package rpcmsg

import (
	"errors"
	"strings"

	"github.com/poluo/libvirt/internal/metrics"
)

// FreeCallback is invoked by Free once a Message's FDs and buffer have been
// released, giving the owner (e.g. a call-tracking table) a chance to drop
// its own references. Mirrors virNetMessageFree's optional callback.
type FreeCallback func(msg *Message)

// Message is the in-memory representation of a single frame: its header,
// wire buffer, attached file descriptors, and queue linkage. Exactly one
// goroutine may operate on a given Message at a time (see package doc);
// nothing in this type is safe for concurrent access.
type Message struct {
	// Tracked marks a message whose lifetime is managed by a call-tracking
	// table rather than by the code that created it.
	Tracked bool

	Header Header

	buffer       buffer
	bufferLength int
	bufferOffset int

	fds FdSet

	next *Message

	cb     FreeCallback
	opaque any

	metrics *metrics.CodecMetrics
	cfg     Config
}

// New returns a Message ready for encoding or decoding. tracked matches the
// Tracked field's meaning above.
func New(tracked bool) *Message {
	return &Message{Tracked: tracked, cfg: DefaultConfig()}
}

// SetConfig overrides the message's local resource limits. See Config.
func (m *Message) SetConfig(cfg Config) {
	m.cfg = cfg
}

// SetMetrics attaches cm as the destination for this message's codec
// metrics. A nil *Message.metrics (the default) means metrics are a no-op,
// per CodecMetrics's nil-receiver contract.
func (m *Message) SetMetrics(cm *metrics.CodecMetrics) {
	m.metrics = cm
	m.fds.metrics = cm
}

// recordErr records a codec failure under op, deriving the kind label from
// err if it is (or wraps) a *CodecError.
func (m *Message) recordErr(op string, err error) {
	var ce *CodecError
	if errors.As(err, &ce) {
		m.metrics.RecordError(op, strings.ToLower(ce.Kind.String()))
		return
	}
	m.metrics.RecordError(op, "unknown")
}

// BufferLength reports how many bytes of the frame are populated.
func (m *Message) BufferLength() int {
	return m.bufferLength
}

// BufferOffset reports the codec's current cursor into the frame.
func (m *Message) BufferOffset() int {
	return m.bufferOffset
}

// Bytes returns the full populated frame, length prefix included, ready to
// write to a connection.
func (m *Message) Bytes() []byte {
	return m.buffer.Slice(0, m.bufferLength)
}

// FDs returns the message's attached file descriptor set.
func (m *Message) FDs() *FdSet {
	return &m.fds
}

// SetOpaque attaches caller-defined state to the message, mirroring
// virNetMessage's void *opaque field.
func (m *Message) SetOpaque(v any) {
	m.opaque = v
}

// Opaque returns the caller-defined state previously set with SetOpaque.
func (m *Message) Opaque() any {
	return m.opaque
}

// SetFreeCallback registers cb to run from Free, after FDs and buffer have
// been released.
func (m *Message) SetFreeCallback(cb FreeCallback) {
	m.cb = cb
}

// ReserveLengthPrefix grows the buffer to hold just the length prefix and
// returns that region for a connection layer to fill from the wire, the
// first read of every incoming frame.
func (m *Message) ReserveLengthPrefix() []byte {
	m.buffer.Grow(LenFieldSize)
	m.bufferLength = LenFieldSize
	return m.buffer.Slice(0, LenFieldSize)
}

// ReserveRemaining grows the buffer to total bytes (as announced by a prior
// DecodeLength) and returns the region after the length prefix, for a
// connection layer to fill with the rest of the frame.
func (m *Message) ReserveRemaining(total uint32) []byte {
	m.buffer.Grow(int(total))
	m.bufferLength = int(total)
	return m.buffer.Slice(LenFieldSize, int(total)-LenFieldSize)
}

// EncodeHeader writes h into the message's buffer immediately after the
// reserved length prefix, advancing bufferOffset past it. The length word
// itself is left zeroed until a payload encode call patches it in.
func (m *Message) EncodeHeader(h Header) error {
	encoded, err := EncodeHeader(h)
	if err != nil {
		m.recordErr("encode_header", err)
		return err
	}
	m.buffer.Grow(LenFieldSize + len(encoded))
	copy(m.buffer.Slice(LenFieldSize, len(encoded)), encoded)
	m.Header = h
	m.bufferLength = LenFieldSize + len(encoded)
	m.bufferOffset = m.bufferLength
	return nil
}

// DecodeHeader reads a Header from the message's buffer starting at
// bufferOffset (left at LenFieldSize by a prior DecodeLength call) and
// advances the offset past it.
func (m *Message) DecodeHeader() error {
	if m.buffer.Len() < m.bufferOffset+HeaderXDRLen {
		err := newInternalError("decode_header", "buffer not large enough for header")
		m.recordErr("decode_header", err)
		return err
	}
	h, err := DecodeHeader(m.buffer.Slice(m.bufferOffset, HeaderXDRLen))
	if err != nil {
		m.recordErr("decode_header", err)
		return err
	}
	m.Header = h
	m.bufferOffset += HeaderXDRLen
	return nil
}

// DecodeLength reads the frame's length prefix, grows the buffer to hold
// the full announced frame, and positions the cursor at LenFieldSize ready
// for DecodeHeader. The caller is responsible for having read at least
// LenFieldSize bytes into the buffer beforehand.
func (m *Message) DecodeLength() (uint32, error) {
	total, err := DecodeLength(m.buffer.Slice(0, LenFieldSize))
	if err != nil {
		m.recordErr("decode_length", err)
		return 0, err
	}
	if int(total)-LenFieldSize > m.cfg.EffectiveMaxPayload() {
		err := newProtocolError("decode_length", "packet exceeds configured local payload cap", nil)
		m.recordErr("decode_length", err)
		return 0, err
	}
	m.buffer.Grow(int(total))
	m.bufferLength = int(total)
	m.bufferOffset = LenFieldSize
	return total, nil
}

// ClearPayload discards the payload and FD content of a message while
// keeping its header, so the same Message can be reused for a reply without
// a fresh allocation. Matches virNetMessageClearPayload.
func (m *Message) ClearPayload() {
	m.fds.Clear()
	m.buffer.Reset()
	m.bufferLength = 0
	m.bufferOffset = 0
}

// Clear resets a message for reuse: empty header, no payload, no FDs, no
// queue link, no free callback or opaque state. Tracked is kept, as are the
// Config and metrics destination set with SetConfig and SetMetrics. Matches
// virNetMessageClear.
func (m *Message) Clear() {
	m.ClearPayload()
	m.Header = Header{}
	m.next = nil
	m.cb = nil
	m.opaque = nil
}

// Free releases a message's resources and, if one was registered, invokes
// its FreeCallback. The message must not be used afterward. Matches
// virNetMessageFree.
func (m *Message) Free() {
	if m == nil {
		return
	}
	m.fds.Clear()
	m.buffer.Reset()
	if m.cb != nil {
		m.cb(m)
	}
}
