package check

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bina-labs/kanun/pkg/observability"
)

func TestRunRecordsCheckMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	obs, err := observability.NewWithMeter(mp.Meter("test"))
	require.NoError(t, err)

	svc := NewService(NewMemoryStore(), testEngine(t), discardLogger()).WithMetrics(obs)
	c, err := svc.RunSpec(context.Background(), validSpec())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, c.Status)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "kanun.checks.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total)
}

func TestRunWithoutMetricsProvider(t *testing.T) {
	svc := NewService(NewMemoryStore(), testEngine(t), discardLogger())
	c, err := svc.RunSpec(context.Background(), validSpec())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, c.Status)
}
