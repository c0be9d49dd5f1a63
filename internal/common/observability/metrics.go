package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Observability holds the OTel instruments recorded by the matching service
// and the zeebe workers. The zero value is usable and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobs          otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	matches       otelmetric.Int64Counter
}

// New builds a meter provider exported through reg, so OTel instruments are
// served on the same /metrics endpoint as the promauto collectors. On error
// it returns a zero Observability alongside the error.
func New(serviceName string, reg promclient.Registerer) (*Observability, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return &Observability{}, fmt.Errorf("prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetMeterProvider(provider)
	meter := provider.Meter("scholarship-engine")

	o := &Observability{meterProvider: provider}
	if o.jobs, err = meter.Int64Counter("engine.worker.jobs",
		otelmetric.WithDescription("Zeebe jobs handled, by outcome")); err != nil {
		return &Observability{}, err
	}
	if o.jobDuration, err = meter.Float64Histogram("engine.worker.job.duration",
		otelmetric.WithDescription("Zeebe job handling time"),
		otelmetric.WithUnit("ms")); err != nil {
		return &Observability{}, err
	}
	if o.matches, err = meter.Int64Counter("engine.matches",
		otelmetric.WithDescription("Match results served, by eligibility and prediction status")); err != nil {
		return &Observability{}, err
	}
	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobs != nil {
		o.jobs.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("status", status)))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Microseconds())/1000,
			otelmetric.WithAttributes(attribute.String("status", status)))
	}
}

func (o *Observability) RecordMatch(ctx context.Context, eligible bool, predictionStatus string) {
	if o.matches != nil {
		o.matches.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.Bool("eligible", eligible),
			attribute.String("prediction_status", predictionStatus),
		))
	}
}

// Shutdown flushes and stops the meter provider.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
