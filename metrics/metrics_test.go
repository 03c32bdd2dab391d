package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rohankumardubey/xnio-core/metrics"
)

func TestRegisterCollectors(t *testing.T) {
	r := prometheus.NewRegistry()
	metrics.Register(r)

	metrics.BytesRead.Add(10)
	metrics.MessagesSent.Inc()

	families, err := r.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"xnio_bytes_read_total", "xnio_messages_sent_total", "xnio_listener_failures_total"} {
		if !names[want] {
			t.Errorf("collector %s not registered", want)
		}
	}
}
