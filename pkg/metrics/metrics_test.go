package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilServerMetricsSafe(t *testing.T) {
	var m *ServerMetrics

	m.RecordConnectionAccepted()
	m.RecordConnectionClosed()
	m.RecordPacketReceived("DCS_PING_SERVER")
	m.RecordPacketSent("SDC_PING_SERVER_RESULT")
	m.RecordEventDispatched("server", "device_connected")
	m.RecordRegistration("device", "accepted")
}

// Exercises the whole lifecycle in one test because the registry is
// package-global state.
func TestRegistryLifecycle(t *testing.T) {
	require.False(t, IsEnabled())
	require.Nil(t, NewServerMetrics())
	require.Nil(t, GetRegistry())

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	InitRegistry()
	require.True(t, IsEnabled())
	reg := GetRegistry()
	require.NotNil(t, reg)

	// Idempotent: same registry on repeat calls
	InitRegistry()
	assert.Same(t, reg, GetRegistry())

	m := NewServerMetrics()
	require.NotNil(t, m)

	m.RecordConnectionAccepted()
	m.RecordPacketReceived("DCS_PING_SERVER")
	m.RecordPacketSent("SDC_PING_SERVER_RESULT")
	m.RecordEventDispatched("server", "device_connected")
	m.RecordRegistration("device", "accepted")
	m.RecordConnectionClosed()

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "suplad_connections_accepted_total 1")
	assert.Contains(t, body, `suplad_packets_received_total{call="DCS_PING_SERVER"} 1`)
	assert.Contains(t, body, `suplad_registrations_total{kind="device",outcome="accepted"} 1`)
	assert.Contains(t, body, "suplad_active_connections 0")
}
