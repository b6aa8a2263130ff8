// Package metrics tracks Prometheus metrics for the message codec: frame
// errors by stage, payload buffer growth, and FD attach/receive activity.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CodecMetrics tracks Prometheus metrics for rpcmsg codec operations.
//
// All metrics use the "rpcmsg_" prefix. Methods handle a nil receiver
// gracefully, so a nil *CodecMetrics acts as a no-op (zero overhead when
// metrics are disabled).
type CodecMetrics struct {
	// Errors counts codec failures by operation and kind.
	// Labels: op=[decode_length, decode_header, decode_payload,
	//             encode_header, encode_payload, encode_payload_raw],
	//         kind=[protocol, internal, system]
	// Failures of EncodeNumFDs/DecodeNumFDs are not counted.
	Errors *prometheus.CounterVec

	// PayloadGrows counts EncodePayload probe/retry capacity doublings.
	PayloadGrows prometheus.Counter

	// PayloadBytes tracks encoded and decoded payload sizes.
	// Labels: direction=[encode, decode]
	PayloadBytes *prometheus.HistogramVec

	// FDsAttached counts file descriptors added to outgoing messages.
	FDsAttached prometheus.Counter

	// FDsReceived counts file descriptors absorbed from ancillary data.
	FDsReceived prometheus.Counter
}

var (
	codecMetricsOnce     sync.Once
	codecMetricsInstance *CodecMetrics
)

// NewCodecMetrics creates and registers codec Prometheus metrics.
//
// If registerer is nil, prometheus.DefaultRegisterer is used. Idempotent:
// uses sync.Once so repeated calls (e.g. from multiple connection-layer
// instances sharing a process) return the same registered instance.
func NewCodecMetrics(registerer prometheus.Registerer) *CodecMetrics {
	codecMetricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &CodecMetrics{
			Errors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rpcmsg_errors_total",
					Help: "Total codec errors by operation and kind",
				},
				[]string{"op", "kind"},
			),
			PayloadGrows: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "rpcmsg_payload_grows_total",
					Help: "Total EncodePayload probe/retry capacity doublings",
				},
			),
			PayloadBytes: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "rpcmsg_payload_bytes",
					Help:    "Payload size in bytes by direction",
					Buckets: prometheus.ExponentialBuckets(64, 4, 10),
				},
				[]string{"direction"},
			),
			FDsAttached: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "rpcmsg_fds_attached_total",
					Help: "Total file descriptors attached to outgoing messages",
				},
			),
			FDsReceived: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "rpcmsg_fds_received_total",
					Help: "Total file descriptors absorbed from ancillary data",
				},
			),
		}

		registerer.MustRegister(
			m.Errors,
			m.PayloadGrows,
			m.PayloadBytes,
			m.FDsAttached,
			m.FDsReceived,
		)

		codecMetricsInstance = m
	})

	return codecMetricsInstance
}

// RecordError records a codec failure for op at the given Kind string
// ("protocol", "internal", "system").
func (m *CodecMetrics) RecordError(op, kind string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(op, kind).Inc()
}

// RecordPayloadGrow records one EncodePayload capacity doubling.
func (m *CodecMetrics) RecordPayloadGrow() {
	if m == nil {
		return
	}
	m.PayloadGrows.Inc()
}

// RecordPayloadBytes records a payload's size for the given direction
// ("encode" or "decode").
func (m *CodecMetrics) RecordPayloadBytes(direction string, n int) {
	if m == nil {
		return
	}
	m.PayloadBytes.WithLabelValues(direction).Observe(float64(n))
}

// RecordFDAttached records one FD added to an outgoing message.
func (m *CodecMetrics) RecordFDAttached() {
	if m == nil {
		return
	}
	m.FDsAttached.Inc()
}

// RecordFDReceived records one FD absorbed from ancillary data.
func (m *CodecMetrics) RecordFDReceived() {
	if m == nil {
		return
	}
	m.FDsReceived.Inc()
}
