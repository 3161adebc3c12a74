package telemetry

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/mrops-br/products-form/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Telemetry holds all OpenTelemetry components
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Logger         *slog.Logger

	conn      *grpc.ClientConn
	logCloser io.Closer
}

// NewTelemetry initializes all OpenTelemetry components
func NewTelemetry(otlp *config.OTLPConfig, logCfg *config.LogConfig) (*Telemetry, error) {
	ctx := context.Background()

	out, closer := logOutput(logCfg)
	logger := newLogger(out, otlp, logCfg, true)

	logger.Info("Initializing OpenTelemetry",
		slog.String("endpoint", otlp.Endpoint),
		slog.String("service_name", otlp.ServiceName),
	)

	res, err := newResource(ctx, otlp)
	if err != nil {
		return nil, err
	}

	// One connection shared by the trace and metric exporters
	conn, err := grpc.NewClient(otlp.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create gRPC connection")
	}

	tp, err := initTracerProvider(ctx, conn, res)
	if err != nil {
		return nil, errors.Wrap(err, "initialize tracer provider")
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("Tracer provider initialized successfully")

	mp, err := initMeterProvider(ctx, conn, res)
	if err != nil {
		return nil, errors.Wrap(err, "initialize meter provider")
	}

	otel.SetMeterProvider(mp)
	logger.Info("Meter provider initialized successfully (OTLP + Prometheus exporters)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		conn:           conn,
		logCloser:      closer,
	}, nil
}

// NewNoOpTelemetry creates a telemetry instance that exports nothing over
// OTLP. Spans are still created and /metrics is still served.
func NewNoOpTelemetry(otlp *config.OTLPConfig, logCfg *config.LogConfig) (*Telemetry, error) {
	out, closer := logOutput(logCfg)
	logger := newLogger(out, otlp, logCfg, false)

	res, err := newResource(context.Background(), otlp)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	mp, err := initLocalMeterProvider(res)
	if err != nil {
		return nil, errors.Wrap(err, "initialize meter provider")
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Info("Telemetry initialized in no-op mode (export disabled)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		logCloser:      closer,
	}, nil
}

// Shutdown gracefully shuts down all telemetry components
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.Logger.Info("Shutting down OpenTelemetry")

	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown tracer provider", slog.String("error", err.Error()))
		return err
	}

	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown meter provider", slog.String("error", err.Error()))
		return err
	}

	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			t.Logger.Error("Failed to close OTLP connection", slog.String("error", err.Error()))
		}
	}

	t.Logger.Info("OpenTelemetry shutdown successfully")

	if t.logCloser != nil {
		return t.logCloser.Close()
	}
	return nil
}
