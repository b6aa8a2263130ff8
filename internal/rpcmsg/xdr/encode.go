// Package xdr provides generic XDR (External Data Representation) encoding
// and decoding helpers per RFC 4506.
//
// XDR is the standard data serialization format used by Sun RPC protocols,
// including the virtualization management daemon's own RPC transport. This
// package holds only the fixed-width primitives the message header needs
// (uint32/int32, opaque/string framing); variable payload bodies are left to
// the caller-supplied serializer (see pkg/rpcserializer).
//
// Key characteristics of XDR:
//   - Big-endian byte order for all multi-byte integers
//   - 4-byte alignment for all data types
//   - Variable-length data is preceded by a 4-byte length
//   - Strings and opaque data are padded to 4-byte boundaries
//
// Reference: RFC 4506 - XDR: External Data Representation Standard
// https://tools.ietf.org/html/rfc4506
package xdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WriteXDROpaque encodes opaque data (byte array) in XDR format: length +
// data + padding.
func WriteXDROpaque(buf *bytes.Buffer, data []byte) error {
	length := uint32(len(data))
	if err := binary.Write(buf, binary.BigEndian, length); err != nil {
		return fmt.Errorf("write opaque length: %w", err)
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write opaque data: %w", err)
	}
	return WriteXDRPadding(buf, length)
}

// WriteXDRString encodes a string in XDR format: length + data + padding.
func WriteXDRString(buf *bytes.Buffer, s string) error {
	length := uint32(len(s))
	if err := binary.Write(buf, binary.BigEndian, length); err != nil {
		return fmt.Errorf("write string length: %w", err)
	}
	if _, err := buf.Write([]byte(s)); err != nil {
		return fmt.Errorf("write string data: %w", err)
	}
	return WriteXDRPadding(buf, length)
}

// WriteXDRPadding writes zero padding bytes so the stream realigns to a
// 4-byte boundary after a variable-length write of dataLen bytes.
func WriteXDRPadding(buf *bytes.Buffer, dataLen uint32) error {
	padding := (4 - (dataLen % 4)) % 4
	if padding > 0 {
		var padBytes [3]byte
		if _, err := buf.Write(padBytes[:padding]); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	return nil
}

// WriteUint32 encodes a 32-bit unsigned integer in XDR format.
func WriteUint32(buf *bytes.Buffer, v uint32) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("write uint32: %w", err)
	}
	return nil
}

// WriteInt32 encodes a 32-bit signed integer in XDR format.
func WriteInt32(buf *bytes.Buffer, v int32) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("write int32: %w", err)
	}
	return nil
}
