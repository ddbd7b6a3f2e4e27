package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Error can also be returned from all the methods, but it is decided not to do so such as to keep the usage clean,
// any errors are already being logged from here.

type Manager interface {
	NewCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

type Logger interface {
	Error(args ...any)
	Warnf(format string, args ...any)
}

type metricsManager struct {
	meter  metric.Meter
	store  *store
	logger Logger
}

func NewMetricsManager(meter metric.Meter, logger Logger) Manager {
	return &metricsManager{
		meter:  meter,
		store:  newStore(),
		logger: logger,
	}
}

// NewCounter registers a new counter metrics whose values are monotonically increasing
// and cannot decrement.
//
//	Usage: m.NewCounter("requests_total", "Total number of requests")
func (m *metricsManager) NewCounter(name, desc string) {
	counter, err := m.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error(err)

		return
	}

	if err = m.store.setCounter(name, counter); err != nil {
		m.logger.Error(err)
	}
}

// NewHistogram registers a new histogram metrics with the given bucket boundaries.
//
//	Usage:
//	 m.NewHistogram("app_http_client_response", "Response time of outgoing requests in seconds", .001, .01, .1, 1)
func (m *metricsManager) NewHistogram(name, desc string, buckets ...float64) {
	histogram, err := m.meter.Float64Histogram(name, metric.WithDescription(desc),
		metric.WithExplicitBucketBoundaries(buckets...))
	if err != nil {
		m.logger.Error(err)

		return
	}

	if err = m.store.setHistogram(name, histogram); err != nil {
		m.logger.Error(err)
	}
}

// IncrementCounter increases the specified registered counter metric by 1.
// Labels are key-value pairs where the label name and value alternate.
func (m *metricsManager) IncrementCounter(ctx context.Context, name string, labels ...string) {
	counter, err := m.store.getCounter(name)
	if err != nil {
		m.logger.Error(err)

		return
	}

	counter.Add(ctx, 1, metric.WithAttributes(m.getAttributes(name, labels...)...))
}

// RecordHistogram records the specified value in the respective buckets of the histogram metric.
func (m *metricsManager) RecordHistogram(ctx context.Context, name string, value float64, labels ...string) {
	histogram, err := m.store.getHistogram(name)
	if err != nil {
		m.logger.Error(err)

		return
	}

	histogram.Record(ctx, value, metric.WithAttributes(m.getAttributes(name, labels...)...))
}

func (m *metricsManager) getAttributes(name string, labels ...string) []attribute.KeyValue {
	labelsCount := len(labels)
	if labelsCount%2 != 0 {
		m.logger.Warnf("Metrics %v label has invalid key-value pairs", name)
	}

	attributes := make([]attribute.KeyValue, 0, labelsCount/2)

	for i := 0; i < labelsCount-1; i += 2 {
		attributes = append(attributes, attribute.String(labels[i], labels[i+1]))
	}

	return attributes
}
