package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountAndExpose(t *testing.T) {
	m := New()
	m.PushRequests.WithLabelValues(OutcomeStored).Inc()
	m.PushRequests.WithLabelValues(OutcomeStored).Inc()
	m.PushRequests.WithLabelValues(OutcomeNoData).Inc()
	m.PayloadBytes.Observe(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PushRequests.WithLabelValues(OutcomeStored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushRequests.WithLabelValues(OutcomeNoData)))

	rr := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	m.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `pubsubsink_push_requests_total{outcome="stored"} 2`)
	assert.Contains(t, rr.Body.String(), "pubsubsink_push_payload_bytes_count 1")
}

func TestNewIsolatedRegistries(t *testing.T) {
	a := New()
	b := New()
	a.ReadRequests.WithLabelValues(OutcomeOK).Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ReadRequests.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ReadRequests.WithLabelValues(OutcomeOK)))
}
