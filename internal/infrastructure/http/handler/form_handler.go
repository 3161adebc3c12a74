package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/mrops-br/products-form/internal/app/dto"
	"github.com/mrops-br/products-form/internal/app/service"
	"github.com/mrops-br/products-form/internal/domain"
	"github.com/mrops-br/products-form/internal/infrastructure/http/response"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errEmptyPagination = errors.New("page or page_size is required")

// FormHandler exposes the product form and table over HTTP
type FormHandler struct {
	controller *service.ProductFormListController
	logger     *slog.Logger
}

// NewFormHandler creates a new form handler
func NewFormHandler(controller *service.ProductFormListController, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		controller: controller,
		logger:     logger,
	}
}

// Routes registers the form and product routes on r
func (h *FormHandler) Routes(r chi.Router) {
	r.Route("/form", func(r chi.Router) {
		r.Get("/", h.GetForm)
		r.Patch("/", h.SetFields)
		r.Post("/submit", h.Submit)
		r.Post("/cancel", h.Cancel)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Put("/pagination", h.SetPagination)
		r.Post("/{id}/edit", h.BeginEdit)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// GetForm handles GET /form
func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.controller.Form(r.Context()))
}

// SetFields handles PATCH /form
func (h *FormHandler) SetFields(w http.ResponseWriter, r *http.Request) {
	var req dto.SetFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.controller.SetFields(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, h.controller.Form(r.Context()))
}

// Submit handles POST /form/submit
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	// A started exchange is always awaited, even if the client goes away.
	ctx := context.WithoutCancel(r.Context())

	product, err := h.controller.Submit(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.SubmitResponse{
		Product: dto.ToProductResponse(product),
		Form:    h.controller.Form(ctx),
	})
}

// Cancel handles POST /form/cancel
func (h *FormHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.CancelEdit(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, h.controller.Form(r.Context()))
}

// ListProducts handles GET /products
func (h *FormHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.controller.ProductsPage(r.Context()))
}

// SetPagination handles PUT /products/pagination
func (h *FormHandler) SetPagination(w http.ResponseWriter, r *http.Request) {
	var req dto.PaginationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var err error
	switch {
	case req.PageSize != nil:
		err = h.controller.SetPageSize(r.Context(), *req.PageSize)
	case req.Page != nil:
		err = h.controller.SetPage(r.Context(), *req.Page)
	default:
		err = errEmptyPagination
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, h.controller.ProductsPage(r.Context()))
}

// BeginEdit handles POST /products/{id}/edit
func (h *FormHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	id := domain.ProductID(chi.URLParam(r, "id"))

	if err := h.controller.BeginEdit(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, h.controller.Form(r.Context()))
}

// DeleteProduct handles DELETE /products/{id}
func (h *FormHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	id := domain.ProductID(chi.URLParam(r, "id"))

	if err := h.controller.DeleteProduct(ctx, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, h.controller.ProductsPage(ctx))
}

func (h *FormHandler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Failed to decode request body",
		slog.String("error", err.Error()),
	)
	response.Error(w, http.StatusBadRequest, err)
}

// writeError maps controller errors to HTTP statuses. Gateway errors are
// checked first since they may wrap a validation error of a canonical record.
func (h *FormHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ge *domain.GatewayError
	var ve *domain.ValidationError

	switch {
	case errors.As(err, &ge):
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		response.Error(w, status, err)
	case errors.As(err, &ve):
		response.ErrorWithFields(w, http.StatusUnprocessableEntity, errors.New(domain.ValidationNotice), ve.Errors)
	case errors.Is(err, domain.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrRequestInFlight),
		errors.Is(err, domain.ErrNotEditing),
		errors.Is(err, domain.ErrEditInProgress):
		response.Error(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidPage),
		errors.Is(err, domain.ErrInvalidPageSize),
		errors.Is(err, errEmptyPagination):
		response.Error(w, http.StatusBadRequest, err)
	default:
		h.logger.ErrorContext(r.Context(), "Unhandled error",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusInternalServerError, err)
	}
}
