package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricSdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"bootkit.dev/pkg/bootkit/version"
)

// Prometheus returns a meter whose instruments are collected by registry.
func Prometheus(appName, appVersion string, registry prometheus.Registerer) (metric.Meter, error) {
	exporter, err := otelprom.New(otelprom.WithoutTargetInfo(), otelprom.WithoutScopeInfo(),
		otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	meter := metricSdk.NewMeterProvider(
		metricSdk.WithReader(exporter),
		metricSdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(appName),
			attribute.String("bootkit_version", version.Framework),
		))).Meter(appName, metric.WithInstrumentationVersion(appVersion))

	return meter, nil
}
