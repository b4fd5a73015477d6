package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "ringq"

// Metrics holds the service collectors on a private registry so several
// instances (tests, embedded servers) can coexist in one process.
type Metrics struct {
	Registry   *prometheus.Registry
	Size       *prometheus.GaugeVec
	Capacity   *prometheus.GaugeVec
	Operations *prometheus.CounterVec
	Dropped    *prometheus.CounterVec
	HTTP       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_size",
			Help:      "Messages currently stored per queue.",
		}, []string{"queue"}),
		Capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_capacity",
			Help:      "Fixed capacity per queue.",
		}, []string{"queue"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Queue operations by kind and result code.",
		}, []string{"op", "result"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_messages_total",
			Help:      "Messages still stored when their queue was destroyed.",
		}, []string{"queue"}),
		HTTP: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "path", "status"}),
	}
	m.Registry.MustRegister(
		m.Size, m.Capacity, m.Operations, m.Dropped, m.HTTP,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// The methods below satisfy queue.Observer.

func (m *Metrics) QueueCreated(name string, capacity int) {
	m.Capacity.WithLabelValues(name).Set(float64(capacity))
	m.Size.WithLabelValues(name).Set(0)
}

func (m *Metrics) QueueDestroyed(name string, dropped int) {
	m.Dropped.WithLabelValues(name).Add(float64(dropped))
	m.Size.DeleteLabelValues(name)
	m.Capacity.DeleteLabelValues(name)
}

func (m *Metrics) Operation(name, op, result string, size int) {
	m.Operations.WithLabelValues(op, result).Inc()
	if size >= 0 {
		m.Size.WithLabelValues(name).Set(float64(size))
	}
}
