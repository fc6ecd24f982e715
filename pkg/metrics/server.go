package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics observes the protocol server: connection lifecycle,
// packet traffic and event dispatch. All methods are safe on a nil
// receiver, so a disabled registry costs nothing.
type ServerMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	packetsReceived     *prometheus.CounterVec
	packetsSent         *prometheus.CounterVec
	eventsDispatched    *prometheus.CounterVec
	registrations       *prometheus.CounterVec
}

// NewServerMetrics creates the server recorder set. Returns nil if
// InitRegistry has not been called.
func NewServerMetrics() *ServerMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &ServerMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "suplad_connections_accepted_total",
			Help: "Total number of accepted TCP connections",
		}),
		connectionsClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "suplad_connections_closed_total",
			Help: "Total number of closed TCP connections",
		}),
		activeConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "suplad_active_connections",
			Help: "Current number of open connections",
		}),
		packetsReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "suplad_packets_received_total",
			Help: "Total received packets by protocol call",
		}, []string{"call"}),
		packetsSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "suplad_packets_sent_total",
			Help: "Total sent packets by protocol call",
		}, []string{"call"}),
		eventsDispatched: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "suplad_events_dispatched_total",
			Help: "Total dispatched bus events by scope and event name",
		}, []string{"scope", "event"}),
		registrations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "suplad_registrations_total",
			Help: "Total registration attempts by peer kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// RecordConnectionAccepted counts a new connection.
func (m *ServerMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
	m.activeConnections.Inc()
}

// RecordConnectionClosed counts a finished connection.
func (m *ServerMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
	m.activeConnections.Dec()
}

// RecordPacketReceived counts one inbound packet.
func (m *ServerMetrics) RecordPacketReceived(call string) {
	if m == nil {
		return
	}
	m.packetsReceived.WithLabelValues(call).Inc()
}

// RecordPacketSent counts one outbound packet.
func (m *ServerMetrics) RecordPacketSent(call string) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(call).Inc()
}

// RecordEventDispatched counts one bus event delivery.
func (m *ServerMetrics) RecordEventDispatched(scope, event string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(scope, event).Inc()
}

// RecordRegistration counts a registration attempt outcome.
func (m *ServerMetrics) RecordRegistration(kind, outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(kind, outcome).Inc()
}
