package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/apcontrols/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:     false,
		ServiceName: "ap-controls-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(ctx))

	var nilProvider *telemetry.TracerProvider
	assert.False(t, nilProvider.IsEnabled())
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:     false,
		ServiceName: "ap-controls-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NoError(t, mp.Shutdown(ctx))

	meter := mp.Meter("test")
	counter, err := telemetry.NewCounter(meter, "apc_test_total", "test counter", "{events}")
	require.NoError(t, err)
	histogram, err := telemetry.NewHistogram(meter, "apc_test_seconds", "test latency", "s", 0.1, 1)
	require.NoError(t, err)
	gauge, err := telemetry.NewGauge(meter, "apc_test_inflight", "test gauge", "{requests}")
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		counter.Inc(ctx)
		histogram.Record(ctx, 0.2)
		gauge.Add(ctx, 1)
		gauge.Add(ctx, -1)
	})
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("requires an OTLP collector")
	}
	ctx := context.Background()

	// otlptracegrpc connects lazily, so construction succeeds without a collector.
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "ap-controls-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = tp.Shutdown(shutdownCtx)
}
