package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mrops-br/products-form/internal/app/service"
	"github.com/mrops-br/products-form/internal/domain"
	"github.com/mrops-br/products-form/internal/infrastructure/config"
	"github.com/mrops-br/products-form/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-form/internal/infrastructure/notify"
	"github.com/mrops-br/products-form/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

type emptyGateway struct{}

func (emptyGateway) List(ctx context.Context) ([]domain.Product, error) { return nil, nil }

func (emptyGateway) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	return p, nil
}

func (emptyGateway) Update(ctx context.Context, id domain.ProductID, p domain.Product) (domain.Product, error) {
	return p, nil
}

func (emptyGateway) Delete(ctx context.Context, id domain.ProductID) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	tracer := noop.NewTracerProvider().Tracer("test")
	logger := slog.New(slog.DiscardHandler)
	pager, err := domain.NewPager(5, []int{5, 10, 20})
	require.NoError(t, err)

	controller := service.NewProductFormListController(
		emptyGateway{},
		memory.NewProductCollection(tracer, logger),
		notify.NewLogNotifier(logger),
		pager,
		tracer,
		metricnoop.NewMeterProvider().Meter("test"),
		logger,
	)

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	return NewServer(cfg, handler.NewFormHandler(controller, logger), metricnoop.NewMeterProvider(), logger)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}

func TestShutdownStopsRunningServer(t *testing.T) {
	s := newTestServer(t)

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
