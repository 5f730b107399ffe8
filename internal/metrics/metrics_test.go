package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMetrics(t *testing.T) {
	before := AlertsCreated.Load()
	AlertsCreated.Add(2)

	rec := httptest.NewRecorder()
	HandleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "bridge_messages_received_total ")
	assert.Contains(t, body, "bridge_alert_failures_total ")
	assert.Regexp(t, `bridge_alerts_created_total \d+`, body)
	assert.Equal(t, before+2, AlertsCreated.Load())
}
