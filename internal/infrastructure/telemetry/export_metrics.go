package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Export outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// ExportDurationBuckets cover a quick print preview up to a large PDF render
var ExportDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// PageCountBuckets are boundaries for pages per PDF
var PageCountBuckets = []float64{1, 2, 5, 10, 25, 50, 100}

// ServiceMetrics holds the instruments for voucher exports, purchase flows
// and backend API calls. A nil *ServiceMetrics records nothing.
type ServiceMetrics struct {
	exports          *Counter
	exportDuration   *Histogram
	exportPages      *Histogram
	exportedVouchers *Counter
	flowTransitions  *Counter
	upstreamDuration *Histogram
}

// NewServiceMetrics creates the instruments on meter
func NewServiceMetrics(meter metric.Meter) (*ServiceMetrics, error) {
	m := &ServiceMetrics{}
	var err error

	if m.exports, err = NewCounter(meter, "voucher_exports_total", "Voucher exports by channel and outcome", "{export}"); err != nil {
		return nil, err
	}
	if m.exportedVouchers, err = NewCounter(meter, "voucher_exported_pins_total", "PINs written to finished exports", "{pin}"); err != nil {
		return nil, err
	}
	if m.exportDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "voucher_export_duration_seconds",
		Description: "Time from export request to finished artifact",
		Unit:        "s",
		Buckets:     ExportDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.exportPages, err = NewHistogram(meter, HistogramOpts{
		Name:        "voucher_export_pages",
		Description: "Pages per exported PDF",
		Unit:        "{page}",
		Buckets:     PageCountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.flowTransitions, err = NewCounter(meter, "purchase_flow_transitions_total", "Purchase flow triggers by kind, state and result", "{transition}"); err != nil {
		return nil, err
	}
	if m.upstreamDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "upstream_request_duration_seconds",
		Description: "Backend API call latency",
		Unit:        "s",
		Buckets:     DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordExport records one finished export attempt. pages is ignored unless
// the export produced a PDF.
func (m *ServiceMetrics) RecordExport(ctx context.Context, channel, outcome string, d time.Duration, vouchers, pages int) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	}
	m.exports.Inc(ctx, attrs...)
	m.exportDuration.RecordDuration(ctx, d, attrs...)
	if outcome != OutcomeSuccess {
		return
	}
	m.exportedVouchers.Add(ctx, int64(vouchers), attribute.String("channel", channel))
	if pages > 0 {
		m.exportPages.Record(ctx, float64(pages))
	}
}

// RecordFlowTransition records one trigger fired against a purchase flow
func (m *ServiceMetrics) RecordFlowTransition(ctx context.Context, kind, from, trigger string, ok bool) {
	if m == nil {
		return
	}
	m.flowTransitions.Inc(ctx,
		attribute.String("kind", kind),
		attribute.String("from", from),
		attribute.String("trigger", trigger),
		attribute.Bool("ok", ok),
	)
}

// RecordUpstream records one backend API round trip. status is 0 when no
// response arrived.
func (m *ServiceMetrics) RecordUpstream(ctx context.Context, method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.RecordDuration(ctx, d,
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", strconv.Itoa(status)),
	)
}
