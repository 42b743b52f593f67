package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	depositsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_deposits_created_total",
			Help: "Deposits recorded, by payment method",
		},
		[]string{"method"},
	)

	reconcileResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_reconcile_results_total",
			Help: "Webhook reconciliation outcomes, by reason",
		},
		[]string{"reason"},
	)

	creditsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_credits_applied_total",
			Help: "Credits added to user balances by settled deposits",
		},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_gateway_request_duration_seconds",
			Help:    "Latency of payment gateway calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"operation", "outcome"},
	)

	fanoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_fanout_failures_total",
			Help: "Post-settlement side effects that failed after retries",
		},
		[]string{"step"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "billing_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_http_requests_total",
			Help: "Served HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_http_request_duration_seconds",
			Help:    "Latency of served HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func DepositCreated(method string) {
	depositsCreated.WithLabelValues(method).Inc()
}

func ReconcileResult(reason string) {
	reconcileResults.WithLabelValues(reason).Inc()
}

func CreditsApplied(credit int64) {
	if credit > 0 {
		creditsApplied.Add(float64(credit))
	}
}

// ObserveGateway records one gateway call started at start
func ObserveGateway(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	gatewayRequestDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

func FanoutFailure(step string) {
	fanoutFailures.WithLabelValues(step).Inc()
}

// BreakerState publishes a circuit breaker's state as a gauge value
func BreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// Handler serves the default registry for /metrics
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// EchoMiddleware counts requests by route template
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
