package recorder

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	audioBytes *prometheus.CounterVec
	tracks     *prometheus.CounterVec
	reconnects *prometheus.CounterVec
}

// newMetrics registers the recorder counters with reg; a nil registerer
// leaves them unregistered, which the tests use.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		audioBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "audio_bytes_written_total",
			Help:      "Audio bytes written to recording files.",
		}, []string{"stream"}),
		tracks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tracks_total",
			Help:      "Track changes dispatched to artifact writers.",
		}, []string{"stream"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconnects_total",
			Help:      "Reconnection attempts after a stream ended early.",
		}, []string{"stream"}),
	}
	if reg != nil {
		reg.MustRegister(m.audioBytes, m.tracks, m.reconnects)
	}
	return m
}

var (
	registerOnce   sync.Once
	defaultMetrics *metrics
)

// globalMetrics returns the counters registered with the default registry;
// they are shared by every Recorder in the process.
func globalMetrics() *metrics {
	registerOnce.Do(func() { defaultMetrics = newMetrics(prometheus.DefaultRegisterer) })
	return defaultMetrics
}
