package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *Provider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	p, err := NewWithMeter(mp.Meter("test"))
	require.NoError(t, err)
	return reader, p
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordCheck(t *testing.T) {
	reader, p := newMeterProvider(t)
	ctx := context.Background()

	p.RecordCheck(ctx, "commercial", 2, 40*time.Millisecond)
	p.RecordCheck(ctx, "residential", 0, 10*time.Millisecond)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), counterValue(t, metrics["kanun.checks.total"]))

	hist, ok := metrics["kanun.check.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestRecordError(t *testing.T) {
	reader, p := newMeterProvider(t)

	p.RecordError(context.Background(), "check.run")

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, metrics["kanun.errors.total"]))
}

func TestDisabledProviderIsNoOp(t *testing.T) {
	p, err := New(context.Background(), DefaultConfig())
	require.NoError(t, err)

	// Record methods must be safe with no instruments wired.
	p.RecordCheck(context.Background(), "commercial", 1, time.Millisecond)
	p.RecordError(context.Background(), "check.run")

	ctx, span := p.StartSpan(context.Background(), "check.run")
	assert.NotNil(t, ctx)
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}
