package rpcmsg

import (
	"bytes"
	"errors"

	"github.com/poluo/libvirt/internal/logger"
	"github.com/poluo/libvirt/pkg/rpcserializer"
)

// errShortPayloadBuffer is returned to the serializer when a probed payload
// capacity overflows; it never escapes Marshal as-is, since rasky/go-xdr
// (pinned to a 2017 commit, predating Go 1.13's Unwrap convention) wraps
// write errors in its own *MarshalError without an Unwrap method. Callers
// must not try to recover this via errors.Is/As on Marshal's returned
// error — boundedWriter.overflowed is the only reliable signal.
var errShortPayloadBuffer = errors.New("rpcmsg: payload buffer too small")

// boundedWriter rejects any write that would overflow the fixed region it
// was handed, so a probing EncodePayload attempt fails fast instead of
// silently growing past the capacity under test. It records the overflow
// on itself (rather than relying on the error surviving through whatever
// the serializer wraps it in) so EncodePayload can detect it unconditionally.
type boundedWriter struct {
	region     []byte
	n          int
	overflowed bool
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > len(w.region) {
		w.overflowed = true
		return 0, errShortPayloadBuffer
	}
	copy(w.region[w.n:], p)
	w.n += len(p)
	return len(p), nil
}

// EncodePayload serializes v with ser into the message immediately after
// the header, patching the length prefix once the true size is known.
//
// Because ser's encoded size generally can't be predicted ahead of
// serializing, this probes: it grows the buffer to a candidate capacity,
// attempts the marshal into that bounded region, and on overflow doubles
// the capacity and retries, mirroring virNetMessageEncodePayload's xdrmem
// probe/retry loop. The candidate starts at InitialPayloadCapacity (or the
// buffer's existing spare capacity, if larger) and is capped so the total
// frame never exceeds MaxTotalFrame.
func (m *Message) EncodePayload(ser rpcserializer.Serializer, v any) error {
	capacity := InitialPayloadCapacity
	if spare := m.buffer.Len() - m.bufferOffset; spare > capacity {
		capacity = spare
	}

	localMax := m.cfg.EffectiveMaxPayload() + LenFieldSize
	limit := max(min(MaxTotalFrame, localMax)-m.bufferOffset, 0)
	for {
		if capacity > limit {
			capacity = limit
		}

		m.buffer.Grow(m.bufferOffset + capacity)
		bw := &boundedWriter{region: m.buffer.Slice(m.bufferOffset, capacity)}

		n, err := ser.Marshal(bw, v)
		if err == nil {
			m.bufferLength = m.bufferOffset + n
			m.buffer.Grow(m.bufferLength)
			m.bufferOffset = 0
			m.metrics.RecordPayloadBytes("encode", n)
			return EncodeLength(m.buffer.Bytes(), uint32(m.bufferLength))
		}
		if !bw.overflowed {
			encErr := newProtocolError("encode_payload", "marshal", err)
			m.recordErr("encode_payload", encErr)
			return encErr
		}
		if capacity >= limit {
			err := newProtocolError("encode_payload", "payload would exceed maximum frame size", nil)
			m.recordErr("encode_payload", err)
			return err
		}

		logger.Debug("Growing payload buffer", "old_capacity", capacity, "new_capacity", capacity*2)
		m.metrics.RecordPayloadGrow()
		capacity *= 2
	}
}

// EncodePayloadRaw writes data verbatim as the payload, skipping a
// serializer entirely. A nil or empty data is a no-op beyond patching the
// length prefix to the header-only frame size, matching
// virNetMessageEncodePayloadRaw's behavior when called with a zero-length
// buffer (e.g. an error reply carrying no body).
func (m *Message) EncodePayloadRaw(data []byte) error {
	if len(data) == 0 {
		m.bufferLength = m.bufferOffset
		m.buffer.Grow(m.bufferLength)
		m.bufferOffset = 0
		return EncodeLength(m.buffer.Bytes(), uint32(m.bufferLength))
	}

	newLen := m.bufferOffset + len(data)
	localMax := m.cfg.EffectiveMaxPayload() + LenFieldSize
	if newLen > MaxTotalFrame || newLen > localMax {
		err := newProtocolError("encode_payload_raw", "payload would exceed maximum frame size", nil)
		m.recordErr("encode_payload_raw", err)
		return err
	}

	m.buffer.Grow(newLen)
	copy(m.buffer.Slice(m.bufferOffset, len(data)), data)
	m.bufferLength = newLen
	m.bufferOffset = 0
	return EncodeLength(m.buffer.Bytes(), uint32(m.bufferLength))
}

// DecodePayload deserializes the message's payload region with ser into v.
//
// It advances bufferOffset, not bufferLength, by the number of bytes ser
// actually consumed: bufferLength is the total populated frame size and
// must not move once a frame has been fully received, while bufferOffset
// is free to track the decode cursor as the payload is consumed.
func (m *Message) DecodePayload(ser rpcserializer.Serializer, v any) error {
	if m.bufferOffset > m.bufferLength {
		return newInternalError("decode_payload", "offset past buffer length")
	}
	r := bytes.NewReader(m.buffer.Slice(m.bufferOffset, m.bufferLength-m.bufferOffset))

	n, err := ser.Unmarshal(r, v)
	if err != nil {
		decErr := newProtocolError("decode_payload", "unmarshal", err)
		m.recordErr("decode_payload", decErr)
		return decErr
	}
	m.bufferOffset += n
	m.metrics.RecordPayloadBytes("decode", n)
	return nil
}
