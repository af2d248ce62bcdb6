package telemetry

import (
	"context"
	"testing"

	"github.com/datapadi/web/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "datapadi-web"}, "test", zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Meter.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.False(t, p.Profiler.IsEnabled())

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProfiler_RequiresAddressWhenEnabled(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "x"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
	assert.Error(t, err)
}

func TestProfiler_StopTwice(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestLoggerProvider_DisabledCoreIsNop(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)

	core := lp.ZapCore("datapadi-web", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestMinLevelCore(t *testing.T) {
	inner, logs := newObservedCore()
	core := minLevelCore{Core: inner, min: zapcore.WarnLevel}

	logger := zap.New(core)
	logger.Info("dropped")
	logger.Warn("kept")
	logger.With(zap.String("k", "v")).Error("kept too")

	assert.Equal(t, 2, logs.Len())
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestSanitizeLabels(t *testing.T) {
	long := make([]byte, MaxLabelValueLength+10)
	for i := range long {
		long[i] = 'a'
	}

	pairs := sanitizeLabels(map[string]string{
		"Operation":   "export_pdf",
		"owner_id":    "user-1",
		"empty":       "",
		"Channel-Tag": string(long),
	})

	require.Len(t, pairs, 4)
	assert.Equal(t, "channel_tag", pairs[0])
	assert.Len(t, pairs[1], MaxLabelValueLength)
	assert.Equal(t, []string{"operation", "export_pdf"}, pairs[2:])
}

func TestWithProfilingLabels_RunsFn(t *testing.T) {
	ran := 0
	WithProfilingLabels(context.Background(), ExportLabels("export", "PDF"), func(context.Context) { ran++ })
	WithProfilingLabels(context.Background(), nil, func(context.Context) { ran++ })
	assert.Equal(t, 2, ran)
}
