package testutil

import (
	"context"
	"testing"

	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MetricsRecorder collects SalesMetrics in memory.
type MetricsRecorder struct {
	t       *testing.T
	reader  *sdkmetric.ManualReader
	Metrics *telemetry.SalesMetrics
}

// NewMetricsRecorder builds SalesMetrics on a manual reader.
func NewMetricsRecorder(t *testing.T) *MetricsRecorder {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	m, err := telemetry.NewSalesMetrics(provider.Meter(telemetry.MeterName))
	require.NoError(t, err)
	return &MetricsRecorder{t: t, reader: reader, Metrics: m}
}

// Count sums the int64 counter name over data points carrying every attr.
func (r *MetricsRecorder) Count(name string, attrs ...attribute.KeyValue) int64 {
	r.t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(r.t, r.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(r.t, ok, "%s is not an int64 counter", name)
			for _, dp := range sum.DataPoints {
				if hasAll(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

// Observations counts histogram recordings for name over points carrying
// every attr.
func (r *MetricsRecorder) Observations(name string, attrs ...attribute.KeyValue) uint64 {
	r.t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(r.t, r.reader.Collect(context.Background(), &rm))
	var total uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(r.t, ok, "%s is not a float64 histogram", name)
			for _, dp := range hist.DataPoints {
				if hasAll(dp.Attributes, attrs) {
					total += dp.Count
				}
			}
		}
	}
	return total
}

func hasAll(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, want := range attrs {
		got, ok := set.Value(want.Key)
		if !ok || got != want.Value {
			return false
		}
	}
	return true
}
