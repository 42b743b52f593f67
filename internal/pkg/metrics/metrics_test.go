package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(reconcileResults.WithLabelValues("applied"))
	ReconcileResult("applied")
	assert.Equal(t, before+1, testutil.ToFloat64(reconcileResults.WithLabelValues("applied")))

	before = testutil.ToFloat64(depositsCreated.WithLabelValues("payos"))
	DepositCreated("payos")
	assert.Equal(t, before+1, testutil.ToFloat64(depositsCreated.WithLabelValues("payos")))

	before = testutil.ToFloat64(creditsApplied)
	CreditsApplied(50)
	CreditsApplied(0)
	assert.Equal(t, before+50, testutil.ToFloat64(creditsApplied))

	before = testutil.ToFloat64(fanoutFailures.WithLabelValues("notification"))
	FanoutFailure("notification")
	assert.Equal(t, before+1, testutil.ToFloat64(fanoutFailures.WithLabelValues("notification")))

	BreakerState("payos", 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(breakerState.WithLabelValues("payos")))
}

func TestObserveGateway(t *testing.T) {
	ObserveGateway("create_payment_link", time.Now(), nil)
	ObserveGateway("create_payment_link", time.Now(), errors.New("timeout"))

	assert.Equal(t, 2, testutil.CollectAndCount(gatewayRequestDuration, "billing_gateway_request_duration_seconds"))
}

func TestHandlerAndMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(EchoMiddleware())
	e.GET("/metrics", Handler())
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/ping", "204"))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/ping", "204")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "billing_http_requests_total")
}
