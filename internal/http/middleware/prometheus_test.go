package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsApp(t *testing.T) (*fiber.App, *PrometheusMiddleware) {
	t.Helper()
	m, err := NewPrometheusMiddleware(prometheus.NewRegistry())
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/bookings/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/bookings/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Post("/bookings", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTooManyRequests, "slow down") })
	app.Get("/events", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		return c.SendString(": connected\n\n")
	})
	return app, m
}

func TestPrometheusMiddleware_CountsByRoute(t *testing.T) {
	app, m := newMetricsApp(t)

	for _, r := range []struct{ method, path string }{
		{"GET", "/bookings/8f1c"},
		{"GET", "/bookings/9a2d"},
		{"DELETE", "/bookings/8f1c"},
		{"POST", "/bookings"},
	} {
		_, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/bookings/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("DELETE", "/bookings/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("POST", "/bookings", "429")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestCount))
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestDuration))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestPrometheusMiddleware_MethodLabelSurvivesLaterRequests(t *testing.T) {
	app, m := newMetricsApp(t)

	for _, r := range []struct{ method, path string }{
		{"GET", "/bookings/8f1c"},
		{"GET", "/bookings/9a2d"},
		{"DELETE", "/bookings/8f1c"},
		{"POST", "/bookings"},
		{"GET", "/bookings/0b3e"},
	} {
		_, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
		require.NoError(t, err)
	}

	expected := `
# HELP instainstru_http_requests_total HTTP requests by method, route and status.
# TYPE instainstru_http_requests_total counter
instainstru_http_requests_total{method="DELETE",route="/bookings/:id",status="204"} 1
instainstru_http_requests_total{method="GET",route="/bookings/:id",status="200"} 3
instainstru_http_requests_total{method="POST",route="/bookings",status="429"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.requestCount, strings.NewReader(expected)))
}

func TestPrometheusMiddleware_UnmatchedPathsShareALabel(t *testing.T) {
	app, m := newMetricsApp(t)

	for _, p := range []string{"/wp-admin", "/.env", "/admin.php"} {
		resp, _ := app.Test(httptest.NewRequest("GET", p, nil))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", unmatchedRoute, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestCount))
}

func TestPrometheusMiddleware_SkipsHealthAndStreamLatency(t *testing.T) {
	app, m := newMetricsApp(t)

	_, _ = app.Test(httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 0, testutil.CollectAndCount(m.requestCount))

	_, _ = app.Test(httptest.NewRequest("GET", "/events", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/events", "200")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.requestDuration))
}
