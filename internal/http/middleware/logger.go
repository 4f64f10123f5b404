package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"instainstru/internal/logging"
)

// ErrorLocalKey holds an internal error message for the access log. It is
// never sent to the client.
const ErrorLocalKey = "error"

// Logger is a middleware that logs each HTTP request as one JSON line.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - user_id when the request was authenticated
// - trace_id when the request carries a sampled span
// - error when a handler recorded an internal failure under ErrorLocalKey
func Logger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Collect fields after the handler ran to capture the final status
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev = ev.Str("request_id", RequestIDOf(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000)
		if uid := UserID(c); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			ev = ev.Str("trace_id", sc.TraceID().String())
		}
		if cause, ok := c.Locals(ErrorLocalKey).(string); ok {
			ev = ev.Str("error", cause)
		}
		ev.Send()

		return err
	}
}

// LoggerWithWriter is Logger writing to w with timestamps rendered in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	if w == nil {
		w = os.Stdout
	}
	return Logger(logging.New(w, "info", loc))
}
