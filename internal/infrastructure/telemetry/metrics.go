package telemetry

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/mrops-br/products-form/internal/infrastructure/config"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

const serviceVersion = "1.0.0"

// initMeterProvider initializes the meter provider with two readers: OTLP
// push and the Prometheus exporter scraped at /metrics
func initMeterProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource) (*metric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, errors.Wrap(err, "create metric exporter")
	}

	promReader, err := otelprom.New()
	if err != nil {
		return nil, errors.Wrap(err, "create prometheus exporter")
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithReader(promReader),
		metric.WithResource(res),
	)

	return mp, nil
}

// initLocalMeterProvider keeps /metrics working when export is disabled
func initLocalMeterProvider(res *resource.Resource) (*metric.MeterProvider, error) {
	promReader, err := otelprom.New()
	if err != nil {
		return nil, errors.Wrap(err, "create prometheus exporter")
	}

	return metric.NewMeterProvider(
		metric.WithReader(promReader),
		metric.WithResource(res),
	), nil
}

// newResource describes this service
func newResource(ctx context.Context, cfg *config.OTLPConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create resource")
	}
	return res, nil
}
