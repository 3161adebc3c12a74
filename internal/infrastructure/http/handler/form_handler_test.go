package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/products-form/internal/app/dto"
	"github.com/mrops-br/products-form/internal/app/service"
	"github.com/mrops-br/products-form/internal/domain"
	"github.com/mrops-br/products-form/internal/infrastructure/http/response"
	"github.com/mrops-br/products-form/internal/infrastructure/notify"
	"github.com/mrops-br/products-form/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

// stubGateway is a minimal backend keeping products in order
type stubGateway struct {
	products []domain.Product
	err      error
	nextID   int
}

func (g *stubGateway) List(ctx context.Context) ([]domain.Product, error) {
	return g.products, g.err
}

func (g *stubGateway) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if g.err != nil {
		return domain.Product{}, g.err
	}
	g.nextID++
	p.ID = domain.ProductID(decimal.NewFromInt(int64(g.nextID)).String())
	return p, nil
}

func (g *stubGateway) Update(ctx context.Context, id domain.ProductID, p domain.Product) (domain.Product, error) {
	if g.err != nil {
		return domain.Product{}, g.err
	}
	p.ID = id
	return p, nil
}

func (g *stubGateway) Delete(ctx context.Context, id domain.ProductID) error {
	return g.err
}

func setupRouter(t *testing.T, gw *stubGateway) http.Handler {
	t.Helper()

	tracer := noop.NewTracerProvider().Tracer("test")
	logger := slog.New(slog.DiscardHandler)
	pager, err := domain.NewPager(5, []int{5, 10, 20})
	require.NoError(t, err)

	controller := service.NewProductFormListController(
		gw,
		memory.NewProductCollection(tracer, logger),
		notify.NewLogNotifier(logger),
		pager,
		tracer,
		metricnoop.NewMeterProvider().Meter("test"),
		logger,
	)
	if gw.products != nil {
		require.NoError(t, controller.Load(context.Background()))
	}

	r := chi.NewRouter()
	NewFormHandler(controller, logger).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Pen", Description: "Blue ink", Price: decimal.NewFromInt(100), Discount: decimal.NewFromInt(20)},
		{ID: "2", Name: "Cup", Description: "Mug", Price: decimal.NewFromInt(5), Discount: decimal.Zero},
	}
}

func TestGetForm(t *testing.T) {
	h := setupRouter(t, &stubGateway{})

	rec := do(t, h, http.MethodGet, "/form/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	form := decode[dto.FormView](t, rec)
	assert.Equal(t, dto.ModeCreate, form.Mode)
	assert.Equal(t, "Add Product", form.Title)
	assert.False(t, form.Submitting)
}

func TestCreateFlow(t *testing.T) {
	h := setupRouter(t, &stubGateway{})

	rec := do(t, h, http.MethodPatch, "/form/",
		`{"name":"Pen","description":"Blue ink","price":"2","discount":"0"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Pen", decode[dto.FormView](t, rec).Draft.Name)

	rec = do(t, h, http.MethodPost, "/form/submit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	submitted := decode[dto.SubmitResponse](t, rec)
	assert.Equal(t, domain.ProductID("1"), submitted.Product.ID)
	assert.True(t, submitted.Product.FinalPrice.Equal(decimal.NewFromInt(2)))
	assert.True(t, submitted.Form.Draft.IsEmpty())

	rec = do(t, h, http.MethodGet, "/products/", "")
	page := decode[dto.PageResponse](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Pen", page.Items[0].Name)
}

func TestSubmitInvalidDraft(t *testing.T) {
	h := setupRouter(t, &stubGateway{})

	do(t, h, http.MethodPatch, "/form/", `{"name":"Pen","description":"Blue ink","price":"abc","discount":"0"}`)
	rec := do(t, h, http.MethodPost, "/form/submit", "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[struct {
		Error   string              `json:"error"`
		Message string              `json:"message"`
		Fields  []domain.FieldError `json:"fields"`
	}](t, rec)
	assert.Equal(t, "validation_failed", body.Error)
	assert.Equal(t, domain.ValidationNotice, body.Message)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "price", body.Fields[0].Field)
}

func TestSetFieldsUnknownField(t *testing.T) {
	h := setupRouter(t, &stubGateway{})

	rec := do(t, h, http.MethodPatch, "/form/", `{"colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/form/", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditFlow(t *testing.T) {
	h := setupRouter(t, &stubGateway{products: catalog()})

	rec := do(t, h, http.MethodPost, "/products/1/edit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	form := decode[dto.FormView](t, rec)
	assert.Equal(t, dto.ModeEdit, form.Mode)
	assert.Equal(t, "Update Product", form.SubmitLabel)
	assert.Equal(t, "100", form.Draft.Price)

	do(t, h, http.MethodPatch, "/form/", `{"price":"150"}`)
	rec = do(t, h, http.MethodPost, "/form/submit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decode[dto.SubmitResponse](t, rec)
	assert.True(t, submitted.Product.FinalPrice.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, dto.ModeCreate, submitted.Form.Mode)
}

func TestBeginEditUnknownProduct(t *testing.T) {
	h := setupRouter(t, &stubGateway{products: catalog()})

	rec := do(t, h, http.MethodPost, "/products/99/edit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[response.ErrorResponse](t, rec).Error)
}

func TestCancelEdit(t *testing.T) {
	h := setupRouter(t, &stubGateway{products: catalog()})

	do(t, h, http.MethodPost, "/products/2/edit", "")
	rec := do(t, h, http.MethodPost, "/form/cancel", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ModeCreate, decode[dto.FormView](t, rec).Mode)
}

func TestDeleteProduct(t *testing.T) {
	h := setupRouter(t, &stubGateway{products: catalog()})

	rec := do(t, h, http.MethodDelete, "/products/1", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[dto.PageResponse](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.ProductID("2"), page.Items[0].ID)
}

func TestDeleteMissingOnBackendIsNotFound(t *testing.T) {
	gw := &stubGateway{products: catalog()}
	h := setupRouter(t, gw)
	gw.err = &domain.GatewayError{Op: domain.OpDelete, ID: "1", Status: http.StatusNotFound}

	rec := do(t, h, http.MethodDelete, "/products/1", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[response.ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodGet, "/products/", "")
	assert.Len(t, decode[dto.PageResponse](t, rec).Items, 2)
}

func TestBackendFailureIsBadGateway(t *testing.T) {
	gw := &stubGateway{products: catalog()}
	h := setupRouter(t, gw)
	gw.err = &domain.GatewayError{Op: domain.OpDelete, ID: "1", Status: http.StatusInternalServerError}

	rec := do(t, h, http.MethodDelete, "/products/1", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "bad_gateway", decode[response.ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodGet, "/products/", "")
	assert.Len(t, decode[dto.PageResponse](t, rec).Items, 2)
}

func TestDeleteEditTargetResetsForm(t *testing.T) {
	h := setupRouter(t, &stubGateway{products: catalog()})

	do(t, h, http.MethodPost, "/products/1/edit", "")
	do(t, h, http.MethodDelete, "/products/1", "")

	// deleting the edit target returned the form to create mode
	rec := do(t, h, http.MethodGet, "/form/", "")
	assert.Equal(t, dto.ModeCreate, decode[dto.FormView](t, rec).Mode)
}

func TestPagination(t *testing.T) {
	products := make([]domain.Product, 12)
	for i := range products {
		products[i] = domain.Product{
			ID:          domain.ProductID(decimal.NewFromInt(int64(i + 1)).String()),
			Name:        "p",
			Description: "d",
			Price:       decimal.NewFromInt(1),
			Discount:    decimal.Zero,
		}
	}
	h := setupRouter(t, &stubGateway{products: products})

	rec := do(t, h, http.MethodPut, "/products/pagination", `{"page":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[dto.PageResponse](t, rec)
	require.Len(t, page.Items, 5)
	assert.Equal(t, domain.ProductID("6"), page.Items[0].ID)
	assert.Equal(t, domain.ProductID("10"), page.Items[4].ID)
	assert.Equal(t, 3, page.PageCount)

	rec = do(t, h, http.MethodPut, "/products/pagination", `{"page":2,"page_size":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[dto.PageResponse](t, rec)
	assert.Equal(t, 0, page.Page)
	assert.Len(t, page.Items, 10)
}

func TestPaginationErrors(t *testing.T) {
	h := setupRouter(t, &stubGateway{})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: `{}`},
		{name: "negative page", body: `{"page":-1}`},
		{name: "size not offered", body: `{"page_size":7}`},
		{name: "unknown field", body: `{"size":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, "/products/pagination", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}
