// File: metrics/metrics.go
// Package metrics exposes the library's operational counters.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BytesRead counts payload bytes moved off the wire by transport channels.
	BytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "xnio",
		Name:      "bytes_read_total",
		Help:      "Bytes read from transport channels.",
	})

	// BytesWritten counts payload bytes moved onto the wire.
	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "xnio",
		Name:      "bytes_written_total",
		Help:      "Bytes written to transport channels.",
	})

	// MessagesReceived counts messages delivered by the framed reader.
	MessagesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "xnio",
		Name:      "messages_received_total",
		Help:      "Framed messages delivered to handlers.",
	})

	// MessagesSent counts messages accepted by the framed writer.
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "xnio",
		Name:      "messages_sent_total",
		Help:      "Framed messages accepted for sending.",
	})

	// ChannelsOpened counts channels produced by connectors and destinations.
	ChannelsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "xnio",
		Name:      "channels_opened_total",
		Help:      "Channels opened by connectors and destinations.",
	})

	// ListenerFailures counts listener invocations that panicked.
	ListenerFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "xnio",
		Name:      "listener_failures_total",
		Help:      "Channel listener invocations that failed.",
	})
)

// Register adds every library collector to r.
func Register(r prometheus.Registerer) {
	r.MustRegister(BytesRead, BytesWritten, MessagesReceived, MessagesSent, ChannelsOpened, ListenerFailures)
}
