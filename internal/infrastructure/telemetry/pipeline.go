package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// pipeline is the lifecycle shared by the OTLP signal providers. A zero
// pipeline is inactive and shuts down as a no-op.
type pipeline struct {
	signal string
	logger *zap.Logger
	stop   func(context.Context) error
}

func newPipeline(signal string, logger *zap.Logger) pipeline {
	return pipeline{signal: signal, logger: logger.With(zap.String("signal", signal))}
}

func (p *pipeline) started(stop func(context.Context) error, fields ...zap.Field) {
	p.stop = stop
	p.logger.Info("telemetry pipeline started", fields...)
}

func (p *pipeline) active() bool {
	return p != nil && p.stop != nil
}

// IsEnabled reports whether the signal is exported
func (p *pipeline) IsEnabled() bool {
	return p.active()
}

// Shutdown flushes buffered data and stops the exporter
func (p *pipeline) Shutdown(ctx context.Context) error {
	if !p.active() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.stop(ctx); err != nil {
		p.logger.Error("telemetry pipeline shutdown failed", zap.Error(err))
		return fmt.Errorf("shutdown %s pipeline: %w", p.signal, err)
	}
	p.logger.Debug("telemetry pipeline stopped")
	return nil
}

// grpcOptions builds the exporter options shared by every OTLP gRPC exporter.
// Each exporter package has its own option type.
func grpcOptions[O any](cfg Config, endpoint func(string) O, insecure func() O) []O {
	opts := []O{endpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, insecure())
	}
	return opts
}
