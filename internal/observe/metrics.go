// Package observe holds the OpenTelemetry metric instruments shared by the
// upstream API client, the verse matcher wiring and the proxy's HTTP layer.
//
// Metrics go through the OpenTelemetry Metrics API. [InitProvider] installs a
// Prometheus exporter bridge so the proxy can serve them on /metrics. Tests
// should use [NewMetrics] with their own [metric.MeterProvider].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "quran-player"

// Metrics holds all metric instruments. All fields are safe for concurrent use.
type Metrics struct {
	// UpstreamRequests counts external API calls. Attributes: source, status.
	UpstreamRequests metric.Int64Counter

	// UpstreamErrors counts failed external API calls. Attributes: source, code.
	UpstreamErrors metric.Int64Counter

	// UpstreamDuration tracks external API latency. Attribute: source.
	UpstreamDuration metric.Float64Histogram

	// MatchOutcomes counts voice match attempts. Attribute: outcome.
	MatchOutcomes metric.Int64Counter

	// HTTPRequestDuration tracks proxy request latency. Attributes: method, route, status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.UpstreamRequests, err = m.Int64Counter("quran.upstream.requests",
		metric.WithDescription("External API requests by source and status."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamErrors, err = m.Int64Counter("quran.upstream.errors",
		metric.WithDescription("Failed external API requests by source and error code."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamDuration, err = m.Float64Histogram("quran.upstream.duration",
		metric.WithDescription("Latency of external API requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MatchOutcomes, err = m.Int64Counter("quran.match.outcomes",
		metric.WithDescription("Voice-to-verse match attempts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("quran.http.request.duration",
		metric.WithDescription("Proxy HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordUpstream records one external call. code is empty on success.
func (m *Metrics) RecordUpstream(ctx context.Context, source string, seconds float64, code string) {
	status := "ok"
	if code != "" {
		status = "error"
		m.UpstreamErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("code", code),
		))
	}
	m.UpstreamRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
	m.UpstreamDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("source", source),
	))
}

// RecordMatch counts a match attempt.
func (m *Metrics) RecordMatch(ctx context.Context, matched bool) {
	outcome := "no_match"
	if matched {
		outcome = "matched"
	}
	m.MatchOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level instance built from the global
// [otel.GetMeterProvider]. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Discard returns instruments that record nothing.
func Discard() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observe: noop metrics: " + err.Error())
	}
	return met
}
