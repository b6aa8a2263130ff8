package xdr

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxOpaqueLength bounds a single opaque/string field decoded with
// DecodeOpaque. It protects against a corrupt or hostile length prefix
// forcing a huge allocation; it is independent of, and smaller than, the
// message-level MAX_PAYLOAD bound enforced by the frame codec.
const maxOpaqueLength = 1024 * 1024

// DecodeOpaque decodes XDR variable-length opaque data: length + data +
// padding.
func DecodeOpaque(reader io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}
	if length > maxOpaqueLength {
		return nil, fmt.Errorf("opaque length %d exceeds maximum %d", length, maxOpaqueLength)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	padding := (4 - (length % 4)) % 4
	if padding > 0 {
		var padBuf [3]byte
		if _, err := io.ReadFull(reader, padBuf[:padding]); err != nil {
			return nil, fmt.Errorf("skip padding: %w", err)
		}
	}

	return data, nil
}

// DecodeString decodes an XDR variable-length string.
func DecodeString(reader io.Reader) (string, error) {
	data, err := DecodeOpaque(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeUint32 decodes a 32-bit unsigned integer from XDR format.
func DecodeUint32(reader io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(reader, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read uint32: %w", err)
	}
	return v, nil
}

// DecodeInt32 decodes a 32-bit signed integer from XDR format.
func DecodeInt32(reader io.Reader) (int32, error) {
	var v int32
	if err := binary.Read(reader, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read int32: %w", err)
	}
	return v, nil
}
