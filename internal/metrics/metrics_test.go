package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/Chats", 200, time.Millisecond)
	m.SendStarted()
	m.SendFinished(true)
	m.UploadFinished(false)
	m.StaleDiscarded("messages")
	m.ListRefreshed(true)
	m.ReadAckFailed()
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.SendStarted()
	m.SendStarted()
	m.SendFinished(true)
	m.SendFinished(false)
	m.StaleDiscarded("messages")
	m.ReadAckFailed()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.pending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sends.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sends.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleDiscarded.WithLabelValues("messages")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.readAckFailures))
}

func TestObserveRequestLabelsTransportErrors(t *testing.T) {
	m := New()
	m.ObserveRequest("/Chats", 0, time.Millisecond)
	m.ObserveRequest("/Chats", 200, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("/Chats", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("/Chats", "200")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ListRefreshed(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `chatr_list_refreshes_total{outcome="ok"} 1`))
}
