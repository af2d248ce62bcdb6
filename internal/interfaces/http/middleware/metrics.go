package middleware

import (
	"context"
	"time"

	"github.com/datapadi/web/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrHTTPMethod     = attribute.Key("http.method")
	attrHTTPRoute      = attribute.Key("http.route")
	attrHTTPStatusCode = attribute.Key("http.status_code")
)

var (
	// the slowest route renders a PDF
	durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	// PDF and workbook downloads fill the top buckets
	sizeBuckets = []float64{100, 1e3, 1e4, 1e5, 5e5, 1e6, 5e6, 2e7}
)

type httpInstruments struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
	size     *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

// HTTPMetrics records request count, latency, response size and in-flight
// requests per route. Unmatched paths are reported as route "unknown" so
// scanners cannot blow up the label cardinality.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	var (
		in  httpInstruments
		err error
	)
	if in.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	if in.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Buckets:     durationBuckets,
	}); err != nil {
		return nil, err
	}
	if in.size, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size",
		Unit:        "By",
		Buckets:     sizeBuckets,
	}); err != nil {
		return nil, err
	}
	if in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return in.handle, nil
}

func (in *httpInstruments) handle(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	in.inFlight.Add(ctx, 1)
	defer in.inFlight.Add(ctx, -1)

	c.Next()
	in.observe(ctx, c, time.Since(start))
}

func (in *httpInstruments) observe(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = "unknown"
	}
	attrs := []attribute.KeyValue{attrHTTPMethod.String(c.Request.Method), attrHTTPRoute.String(route)}

	in.requests.Add(ctx, 1, append(attrs, attrHTTPStatusCode.Int(c.Writer.Status()))...)
	in.duration.RecordDuration(ctx, elapsed, attrs...)
	if n := c.Writer.Size(); n > 0 {
		in.size.Record(ctx, float64(n), attrs...)
	}
}
