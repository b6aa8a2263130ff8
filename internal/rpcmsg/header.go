package rpcmsg

import (
	"bytes"

	"github.com/poluo/libvirt/internal/rpcmsg/xdr"
)

// EncodeHeader serializes h as XDR at the front of the payload region: six
// fixed 4-byte fields, no padding. The caller is expected to have already
// reserved LenFieldSize bytes ahead of this for the length prefix.
func EncodeHeader(h Header) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderXDRLen)

	if err := xdr.WriteUint32(&buf, h.Program); err != nil {
		return nil, newProtocolError("encode_header", "program", err)
	}
	if err := xdr.WriteUint32(&buf, h.Version); err != nil {
		return nil, newProtocolError("encode_header", "version", err)
	}
	if err := xdr.WriteInt32(&buf, h.Procedure); err != nil {
		return nil, newProtocolError("encode_header", "procedure", err)
	}
	if err := xdr.WriteInt32(&buf, int32(h.Type)); err != nil {
		return nil, newProtocolError("encode_header", "type", err)
	}
	if err := xdr.WriteUint32(&buf, h.Serial); err != nil {
		return nil, newProtocolError("encode_header", "serial", err)
	}
	if err := xdr.WriteInt32(&buf, int32(h.Status)); err != nil {
		return nil, newProtocolError("encode_header", "status", err)
	}

	return buf.Bytes(), nil
}

// DecodeHeader deserializes a Header from the front of data. data must hold
// at least HeaderXDRLen bytes; the frame codec guarantees this before
// DecodeHeader is called.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderXDRLen {
		return Header{}, newProtocolError("decode_header", "truncated header", nil)
	}

	r := bytes.NewReader(data[:HeaderXDRLen])
	var h Header
	var err error

	if h.Program, err = xdr.DecodeUint32(r); err != nil {
		return Header{}, newProtocolError("decode_header", "program", err)
	}
	if h.Version, err = xdr.DecodeUint32(r); err != nil {
		return Header{}, newProtocolError("decode_header", "version", err)
	}
	if h.Procedure, err = xdr.DecodeInt32(r); err != nil {
		return Header{}, newProtocolError("decode_header", "procedure", err)
	}
	typ, err := xdr.DecodeInt32(r)
	if err != nil {
		return Header{}, newProtocolError("decode_header", "type", err)
	}
	h.Type = MessageType(typ)
	if h.Serial, err = xdr.DecodeUint32(r); err != nil {
		return Header{}, newProtocolError("decode_header", "serial", err)
	}
	status, err := xdr.DecodeInt32(r)
	if err != nil {
		return Header{}, newProtocolError("decode_header", "status", err)
	}
	h.Status = Status(status)

	return h, nil
}
