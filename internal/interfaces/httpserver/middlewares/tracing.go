package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/cms-media/internal/infrastructure/auth"
)

// Tracing starts a server span per request, continuing any trace the caller propagated.
// Spans are named after the route template, never the raw path.
func Tracing(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := routeOf(c)
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.URLPath(c.Request.URL.Path),
				semconv.UserAgentOriginal(c.Request.UserAgent()),
				attribute.String("cms.request_id", RequestIDFromContext(c)),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		if c.Request.ContentLength > 0 {
			span.SetAttributes(attribute.Int64("http.request.body.size", c.Request.ContentLength))
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPResponseStatusCode(status),
			attribute.Bool("cms.authenticated", c.GetString(auth.UserIDKey) != ""),
		)
		if status < http.StatusInternalServerError {
			return
		}

		span.SetStatus(codes.Error, http.StatusText(status))
		if err := c.Errors.Last(); err != nil {
			span.RecordError(err)
		}
	}
}
