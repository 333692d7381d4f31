package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/uploads", "200"))

	RecordHTTPRequest("GET", "/api/uploads", http.StatusOK, 15*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/uploads", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordHTTPRequestUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	RecordHTTPRequest("GET", "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecordDeliveryOutcome(t *testing.T) {
	before := testutil.ToFloat64(DeliveryOutcomesTotal.WithLabelValues("failed"))

	RecordDeliveryOutcome("failed")
	RecordObserverError("redis")

	assert.Equal(t, before+1, testutil.ToFloat64(DeliveryOutcomesTotal.WithLabelValues("failed")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(ObserverErrorsTotal.WithLabelValues("redis")), 1.0)
}
