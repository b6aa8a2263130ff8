package rpcmsg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poluo/libvirt/pkg/rpcserializer"
)

type greetingPayload struct {
	Text string
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	ser := rpcserializer.XDR{}

	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeCall}))
	require.NoError(t, msg.EncodePayload(ser, &greetingPayload{Text: "hello"}))

	total, err := DecodeLength(msg.Bytes()[:LenFieldSize])
	require.NoError(t, err)
	require.Equal(t, uint32(msg.BufferLength()), total)

	recv := New(false)
	copy(recv.ReserveLengthPrefix(), msg.Bytes()[:LenFieldSize])
	_, err = recv.DecodeLength()
	require.NoError(t, err)
	copy(recv.ReserveRemaining(total), msg.Bytes()[LenFieldSize:])
	require.NoError(t, recv.DecodeHeader())

	var got greetingPayload
	require.NoError(t, recv.DecodePayload(ser, &got))
	require.Equal(t, "hello", got.Text)
}

func TestEncodePayloadGrowsPastInitialCapacity(t *testing.T) {
	ser := rpcserializer.XDR{}

	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeCall}))

	big := strings.Repeat("x", InitialPayloadCapacity*3)
	require.NoError(t, msg.EncodePayload(ser, &greetingPayload{Text: big}))

	var got greetingPayload
	recv := New(false)
	copy(recv.ReserveLengthPrefix(), msg.Bytes()[:LenFieldSize])
	total, err := recv.DecodeLength()
	require.NoError(t, err)
	copy(recv.ReserveRemaining(total), msg.Bytes()[LenFieldSize:])
	require.NoError(t, recv.DecodeHeader())
	require.NoError(t, recv.DecodePayload(ser, &got))
	require.Equal(t, big, got.Text)
}

func TestEncodePayloadRejectsOverMaxFrame(t *testing.T) {
	ser := rpcserializer.XDR{}

	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeCall}))

	huge := strings.Repeat("y", MaxPayload+1)
	err := msg.EncodePayload(ser, &greetingPayload{Text: huge})
	require.Error(t, err)

	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, KindProtocol, ce.Kind)
}

func TestEncodePayloadRawNilIsNoOp(t *testing.T) {
	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeMessage}))
	require.NoError(t, msg.EncodePayloadRaw(nil))
	require.Equal(t, LenFieldSize+HeaderXDRLen, msg.BufferLength())
	require.Equal(t, 0, msg.BufferOffset())
}

func TestEncodePayloadRawRejectsOverMaxFrame(t *testing.T) {
	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeStream}))

	huge := make([]byte, MaxPayload+1)
	err := msg.EncodePayloadRaw(huge)
	require.Error(t, err)

	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, KindProtocol, ce.Kind)
}

func TestEncodePayloadSetsBufferOffsetToZero(t *testing.T) {
	ser := rpcserializer.XDR{}

	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeCall}))
	require.NoError(t, msg.EncodePayload(ser, &greetingPayload{Text: "hello"}))
	require.Equal(t, 0, msg.BufferOffset())
}

func TestEncodePayloadRawRoundTrip(t *testing.T) {
	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeStream}))
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, msg.EncodePayloadRaw(payload))

	recv := New(false)
	copy(recv.ReserveLengthPrefix(), msg.Bytes()[:LenFieldSize])
	total, err := recv.DecodeLength()
	require.NoError(t, err)
	copy(recv.ReserveRemaining(total), msg.Bytes()[LenFieldSize:])
	require.NoError(t, recv.DecodeHeader())

	require.Equal(t, payload, recv.buffer.Slice(recv.bufferOffset, recv.bufferLength-recv.bufferOffset))
}

func TestDecodePayloadAdvancesOffsetNotLength(t *testing.T) {
	ser := rpcserializer.XDR{}

	msg := New(false)
	require.NoError(t, msg.EncodeHeader(Header{Program: 1, Version: 1, Type: TypeCall}))
	require.NoError(t, msg.EncodePayload(ser, &greetingPayload{Text: "hi"}))

	recv := New(false)
	copy(recv.ReserveLengthPrefix(), msg.Bytes()[:LenFieldSize])
	total, err := recv.DecodeLength()
	require.NoError(t, err)
	copy(recv.ReserveRemaining(total), msg.Bytes()[LenFieldSize:])
	require.NoError(t, recv.DecodeHeader())

	lengthBefore := recv.BufferLength()
	var got greetingPayload
	require.NoError(t, recv.DecodePayload(ser, &got))

	require.Equal(t, lengthBefore, recv.BufferLength())
	require.Less(t, recv.BufferOffset(), recv.BufferLength()+1)
	require.Greater(t, recv.BufferOffset(), LenFieldSize+HeaderXDRLen)
}
