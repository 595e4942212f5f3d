package observe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestRecordUpstream(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUpstream(ctx, "verses", 0.12, "")
	m.RecordUpstream(ctx, "verses", 0.5, "timeout")
	m.RecordUpstream(ctx, "tafseer", 0.2, "network_failure")

	rm := collect(t, reader)

	requests := findMetric(rm, "quran.upstream.requests")
	require.NotNil(t, requests)
	require.EqualValues(t, 2, sumFor(t, requests, "source", "verses"))
	require.EqualValues(t, 2, sumFor(t, requests, "status", "error"))

	errs := findMetric(rm, "quran.upstream.errors")
	require.NotNil(t, errs)
	require.EqualValues(t, 1, sumFor(t, errs, "code", "timeout"))

	hist := findMetric(rm, "quran.upstream.duration")
	require.NotNil(t, hist)
	data, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range data.DataPoints {
		count += dp.Count
	}
	require.EqualValues(t, 3, count)
}

func TestRecordMatch(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordMatch(ctx, true)
	m.RecordMatch(ctx, false)
	m.RecordMatch(ctx, false)

	outcomes := findMetric(collect(t, reader), "quran.match.outcomes")
	require.NotNil(t, outcomes)
	require.EqualValues(t, 1, sumFor(t, outcomes, "outcome", "matched"))
	require.EqualValues(t, 2, sumFor(t, outcomes, "outcome", "no_match"))
}

func TestDiscard(t *testing.T) {
	m := Discard()
	require.NotNil(t, m)
	m.RecordUpstream(context.Background(), "chapters", 1, "network_failure")
	m.RecordMatch(context.Background(), true)
}
