package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that hit no route, keeping label
// cardinality bounded against path scanning.
const unmatchedRoute = "unmatched"

// PrometheusMiddleware records per-route HTTP metrics.
type PrometheusMiddleware struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	skip            map[string]bool
}

// NewPrometheusMiddleware registers the HTTP collectors with reg. Health and
// scrape endpoints are not measured.
func NewPrometheusMiddleware(reg prometheus.Registerer) (*PrometheusMiddleware, error) {
	m := &PrometheusMiddleware{
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "instainstru",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "instainstru",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route. Event streams are excluded.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "instainstru",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served, open event streams included.",
		}),
		skip: map[string]bool{"/metrics": true, "/health": true, "/healthz": true},
	}

	for _, c := range []prometheus.Collector{m.requestCount, m.requestDuration, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler returns the fiber middleware.
func (m *PrometheusMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.skip[c.Path()] {
			return c.Next()
		}

		m.inFlight.Inc()
		defer m.inFlight.Dec()
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		route := c.Route().Path
		if status == fiber.StatusNotFound && (route == "" || route == "/") {
			route = unmatchedRoute
		}

		// Label values outlive the request; fiber strings point into reused buffers.
		method := utils.CopyString(c.Method())
		m.requestCount.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		if !strings.HasPrefix(string(c.Response().Header.ContentType()), "text/event-stream") {
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		}
		return err
	}
}
