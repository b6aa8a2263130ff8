package rpcmsg

import (
	"bytes"

	"github.com/poluo/libvirt/internal/rpcmsg/xdr"
)

// EncodeLength writes the LenFieldSize-byte big-endian total frame length
// (length field included) to the front of the buffer. Callers call this
// last, once the header and payload have both been written and the final
// total is known.
func EncodeLength(buf []byte, total uint32) error {
	if len(buf) < LenFieldSize {
		return newInternalError("encode_length", "buffer too small for length field")
	}
	var b bytes.Buffer
	b.Grow(LenFieldSize)
	if err := xdr.WriteUint32(&b, total); err != nil {
		return newProtocolError("encode_length", "length", err)
	}
	copy(buf[:LenFieldSize], b.Bytes())
	return nil
}

// DecodeLength reads the LenFieldSize-byte length prefix from data and
// returns the total frame size it announces (length field included).
//
// Two bounds are enforced: total must be large enough to hold not just the
// length field but a full header (LenFieldSize + HeaderXDRLen), since no
// valid frame is ever shorter than that, and the announced payload
// (total - LenFieldSize) must not exceed MaxPayload.
func DecodeLength(data []byte) (uint32, error) {
	if len(data) < LenFieldSize {
		return 0, newInternalError("decode_length", "not enough bytes buffered for length field")
	}

	r := bytes.NewReader(data[:LenFieldSize])
	total, err := xdr.DecodeUint32(r)
	if err != nil {
		return 0, newProtocolError("decode_length", "length", err)
	}

	if total < LenFieldSize+HeaderXDRLen {
		return 0, newProtocolError("decode_length", "packet too small to contain a header", nil)
	}
	if total-LenFieldSize > MaxPayload {
		return 0, newProtocolError("decode_length", "packet too big", nil)
	}

	return total, nil
}
