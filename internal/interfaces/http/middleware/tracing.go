// Package middleware provides HTTP middleware for the DataPadi web service.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin server middleware followed by an annotator
// that runs inside the request span. Spans are named "METHOD route".
//
//	engine.Use(middleware.Tracing("datapadi-web")...)
func Tracing(service string, opts ...otelgin.Option) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(service, opts...), annotateSpan}
}

// annotateSpan adds the request and user ids once the handlers ran, so the
// session middleware has had its turn. 4xx responses keep an Unset status
// and 5xx ones mark the span failed.
func annotateSpan(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}

	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if user := GetUserID(c); user != "" {
		span.SetAttributes(attribute.String("user_id", user))
	}

	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		return
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	if last := c.Errors.Last(); last != nil {
		span.RecordError(last.Err)
	}
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
