package rest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/mrops-br/products-form/internal/domain"
	"github.com/mrops-br/products-form/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	productsPath  = "products"
	maxErrorBytes = 512
)

// productPayload is the body sent on create and update. The id travels in
// the URL only.
type productPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
}

func toPayload(p domain.Product) productPayload {
	return productPayload{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Discount:    p.Discount,
	}
}

// NewHTTPClient returns a client whose transport is traced and measured
func NewHTTPClient(cfg *config.BackendConfig, meterProvider metric.MeterProvider) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithMeterProvider(meterProvider),
		),
	}
}

// ProductGateway is the HTTP implementation of domain.SyncGateway
type ProductGateway struct {
	baseURL  string
	client   *http.Client
	tracer   trace.Tracer
	logger   *slog.Logger
	inflight metric.Int64UpDownCounter
	duration metric.Float64Histogram
}

// NewProductGateway creates a gateway for the products resource under
// cfg.BaseURL
func NewProductGateway(
	cfg *config.BackendConfig,
	client *http.Client,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) (*ProductGateway, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, errors.Wrapf(err, "invalid backend url %q", cfg.BaseURL)
	}

	inflight, _ := meter.Int64UpDownCounter(
		"gateway.requests.inflight",
		metric.WithDescription("Number of outstanding backend requests"),
		metric.WithUnit("{request}"),
	)

	duration, _ := meter.Float64Histogram(
		"gateway.request.duration",
		metric.WithDescription("Backend request duration"),
		metric.WithUnit("s"),
	)

	return &ProductGateway{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   client,
		tracer:   tracer,
		logger:   logger,
		inflight: inflight,
		duration: duration,
	}, nil
}

// List handles GET /products
func (g *ProductGateway) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := g.do(ctx, domain.OpList, "", http.MethodGet, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Create handles POST /products
func (g *ProductGateway) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	var created domain.Product
	if err := g.do(ctx, domain.OpCreate, "", http.MethodPost, toPayload(product), &created); err != nil {
		return domain.Product{}, err
	}
	return created, nil
}

// Update handles PUT /products/{id}
func (g *ProductGateway) Update(ctx context.Context, id domain.ProductID, product domain.Product) (domain.Product, error) {
	var updated domain.Product
	if err := g.do(ctx, domain.OpUpdate, id, http.MethodPut, toPayload(product), &updated); err != nil {
		return domain.Product{}, err
	}
	return updated, nil
}

// Delete handles DELETE /products/{id}
func (g *ProductGateway) Delete(ctx context.Context, id domain.ProductID) error {
	return g.do(ctx, domain.OpDelete, id, http.MethodDelete, nil, nil)
}

func (g *ProductGateway) endpoint(id domain.ProductID) (string, error) {
	if id == "" {
		return url.JoinPath(g.baseURL, productsPath)
	}
	return url.JoinPath(g.baseURL, productsPath, url.PathEscape(string(id)))
}

// do performs one exchange. Every failure is returned as *domain.GatewayError.
func (g *ProductGateway) do(ctx context.Context, op string, id domain.ProductID, method string, body, out any) error {
	ctx, span := g.tracer.Start(ctx, "ProductGateway."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("gateway.operation", op),
		attribute.String("http.request.method", method),
	)
	if id != "" {
		span.SetAttributes(attribute.String("product.id", id.String()))
	}

	fail := func(status int, err error) error {
		gerr := &domain.GatewayError{Op: op, ID: id, Status: status, Err: err}
		span.RecordError(gerr)
		span.SetStatus(codes.Error, gerr.Error())
		g.logger.ErrorContext(ctx, "Backend request failed",
			slog.String("operation", op),
			slog.String("product_id", id.String()),
			slog.Int("status", status),
			slog.String("error", gerr.Error()),
		)
		return gerr
	}

	target, err := g.endpoint(id)
	if err != nil {
		return fail(0, errors.Wrap(err, "build url"))
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fail(0, errors.Wrap(err, "encode request"))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fail(0, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	span.SetAttributes(attribute.String("http.request.id", requestID))

	attrs := metric.WithAttributes(attribute.String("operation", op))
	g.inflight.Add(ctx, 1, attrs)
	start := time.Now()
	resp, err := g.client.Do(req)
	g.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	g.inflight.Add(ctx, -1, attrs)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		var cause error
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			cause = errors.New(msg)
		}
		return fail(resp.StatusCode, cause)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fail(resp.StatusCode, errors.Wrap(err, "decode response"))
		}
	}

	g.logger.DebugContext(ctx, "Backend request completed",
		slog.String("operation", op),
		slog.String("product_id", id.String()),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
	)

	span.SetStatus(codes.Ok, "Backend request completed")
	return nil
}
