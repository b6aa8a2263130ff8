package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewCodecMetricsRegistersAllSeries(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewCodecMetrics(registry)
	require.NotNil(t, m)

	m.RecordError("decode_length", "protocol")
	m.RecordPayloadGrow()
	m.RecordPayloadBytes("encode", 128)
	m.RecordFDAttached()
	m.RecordFDReceived()

	mfs, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	require.True(t, names["rpcmsg_errors_total"])
	require.True(t, names["rpcmsg_payload_grows_total"])
	require.True(t, names["rpcmsg_payload_bytes"])
	require.True(t, names["rpcmsg_fds_attached_total"])
	require.True(t, names["rpcmsg_fds_received_total"])
}

func TestNilCodecMetricsIsNoOp(t *testing.T) {
	var m *CodecMetrics
	require.NotPanics(t, func() {
		m.RecordError("decode_length", "protocol")
		m.RecordPayloadGrow()
		m.RecordPayloadBytes("decode", 64)
		m.RecordFDAttached()
		m.RecordFDReceived()
	})
}
