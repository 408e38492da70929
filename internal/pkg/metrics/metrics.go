// Package metrics holds the prometheus collectors of the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "siterelay"

var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Currently admitted WebSocket connections.",
	})

	Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admissions_total",
		Help:      "Connection admission decisions.",
	}, []string{"result"})

	UpstreamMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_messages_total",
		Help:      "Upstream messages by handling result.",
	}, []string{"result"})

	Broadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcasts_total",
		Help:      "Relay broadcasts by event kind (reserved or upstream).",
	}, []string{"kind"})

	DroppedConnections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_connections_total",
		Help:      "Connections dropped because their send buffer was full.",
	})

	Enqueues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_enqueues_total",
		Help:      "Notification queue writes by result.",
	}, []string{"result"})

	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_dispatches_total",
		Help:      "Push dispatch attempts by terminal state and strategy.",
	}, []string{"state", "strategy"})

	PushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "push_request_duration_seconds",
		Help:      "Duration of push provider requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"strategy"})
)
