package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/mrops-br/products-form/internal/app/dto"
	"github.com/mrops-br/products-form/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Operation names that never reach the gateway.
const (
	opBeginEdit  = "begin_edit"
	opCancelEdit = "cancel_edit"
	opSetField   = "set_field"
)

// ProductFormListController owns the product form, the product collection
// and the list window. All state changes go through its methods; the mutex
// is never held while a gateway request is outstanding.
type ProductFormListController struct {
	mu         sync.Mutex
	gateway    domain.SyncGateway
	collection domain.ProductCollection
	notifier   domain.Notifier
	pager      *domain.Pager
	draft      domain.Draft
	editTarget domain.ProductID
	notice     *domain.Notice
	inflight   inflight

	tracer             trace.Tracer
	logger             *slog.Logger
	productOperations  metric.Int64Counter
	validationFailures metric.Int64Counter
}

// NewProductFormListController creates a controller in create mode with an
// empty form
func NewProductFormListController(
	gateway domain.SyncGateway,
	collection domain.ProductCollection,
	notifier domain.Notifier,
	pager *domain.Pager,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductFormListController {
	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product form operations"),
	)

	validationFailures, _ := meter.Int64Counter(
		"form.validation.failures",
		metric.WithDescription("Total number of drafts rejected by validation"),
	)

	return &ProductFormListController{
		gateway:            gateway,
		collection:         collection,
		notifier:           notifier,
		pager:              pager,
		inflight:           make(inflight),
		tracer:             tracer,
		logger:             logger,
		productOperations:  productOperations,
		validationFailures: validationFailures,
	}
}

// Load fetches the product list from the backend and replaces the local
// collection with it. Records that break the collection invariants are
// skipped.
func (c *ProductFormListController) Load(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "ProductFormListController.Load")
	defer span.End()

	if err := c.acquire(ctx, span, domain.OpList, listKey); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Loading products")
	products, err := c.gateway.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight.release(listKey)

	if err != nil {
		c.fail(ctx, span, domain.OpList, "Failed to load products", err)
		return err
	}

	accepted := c.acceptLoaded(ctx, products)
	if err := c.collection.Reset(ctx, accepted); err != nil {
		c.fail(ctx, span, domain.OpList, "Failed to load products", err)
		return err
	}

	span.SetAttributes(attribute.Int("product.count", len(accepted)))
	c.record(ctx, domain.OpList, "success")
	c.logger.InfoContext(ctx, "Products loaded",
		slog.Int("count", len(accepted)),
		slog.Int("skipped", len(products)-len(accepted)),
	)

	span.SetStatus(codes.Ok, "Products loaded")
	return nil
}

// AddProduct validates draft, creates it on the backend and appends the
// canonical record. The form is reset only when the backend confirms.
func (c *ProductFormListController) AddProduct(ctx context.Context, draft domain.Draft) (domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "ProductFormListController.AddProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.name", draft.Name))

	product, err := c.prepareCreate(ctx, span, draft)
	if err != nil {
		return domain.Product{}, err
	}

	c.logger.InfoContext(ctx, "Creating product",
		slog.String("name", product.Name),
		slog.String("price", product.Price.String()),
		slog.String("discount", product.Discount.String()),
	)

	created, err := c.gateway.Create(ctx, product)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight.release(formKey)

	if err == nil {
		created, err = canonical(domain.OpCreate, "", created)
	}
	if err == nil {
		if appendErr := c.collection.Append(ctx, created); appendErr != nil {
			err = &domain.GatewayError{Op: domain.OpCreate, ID: created.ID, Err: appendErr}
		}
	}
	if err != nil {
		c.fail(ctx, span, domain.OpCreate, "Failed to add product", err)
		return domain.Product{}, err
	}

	c.resetForm()
	c.notice = nil

	span.SetAttributes(attribute.String("product.id", created.ID.String()))
	c.record(ctx, domain.OpCreate, "success")
	c.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", created.ID.String()),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return created, nil
}

// prepareCreate validates draft before taking the lock, then reserves the
// form.
func (c *ProductFormListController) prepareCreate(ctx context.Context, span trace.Span, draft domain.Draft) (domain.Product, error) {
	product, err := domain.Validate(draft)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.editTarget != "" {
		c.warn(ctx, span, domain.OpCreate, domain.ErrEditInProgress)
		return domain.Product{}, domain.ErrEditInProgress
	}
	if c.inflight.busy(formKey) {
		c.warn(ctx, span, domain.OpCreate, domain.ErrRequestInFlight)
		return domain.Product{}, domain.ErrRequestInFlight
	}
	if err != nil {
		c.rejectDraft(ctx, span, domain.OpCreate, err)
		return domain.Product{}, err
	}

	c.inflight.acquire(formKey)
	return product, nil
}

// BeginEdit loads the product with the given id into the form and switches
// to edit mode.
func (c *ProductFormListController) BeginEdit(ctx context.Context, id domain.ProductID) error {
	ctx, span := c.tracer.Start(ctx, "ProductFormListController.BeginEdit")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight.busy(formKey, productKey(id)) {
		c.warn(ctx, span, opBeginEdit, domain.ErrRequestInFlight)
		return domain.ErrRequestInFlight
	}

	product, err := c.collection.FindByID(ctx, id)
	if err != nil {
		c.warn(ctx, span, opBeginEdit, err)
		return err
	}

	c.draft = product.Draft()
	c.editTarget = id
	c.notice = nil

	c.record(ctx, opBeginEdit, "success")
	c.logger.InfoContext(ctx, "Editing product",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "Edit started")
	return nil
}

// UpdateProduct validates draft, sends it to the backend for the product
// being edited and replaces that product with the canonical response.
func (c *ProductFormListController) UpdateProduct(ctx context.Context, draft domain.Draft) (domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "ProductFormListController.UpdateProduct")
	defer span.End()

	target, product, err := c.prepareUpdate(ctx, span, draft)
	if err != nil {
		return domain.Product{}, err
	}

	span.SetAttributes(attribute.String("product.id", target.String()))
	c.logger.InfoContext(ctx, "Updating product",
		slog.String("product_id", target.String()),
		slog.String("price", product.Price.String()),
		slog.String("discount", product.Discount.String()),
	)

	updated, err := c.gateway.Update(ctx, target, product)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight.release(formKey, productKey(target))

	if err == nil {
		updated, err = canonical(domain.OpUpdate, target, updated)
	}
	if err == nil {
		if replaceErr := c.collection.Replace(ctx, target, updated); replaceErr != nil {
			err = &domain.GatewayError{Op: domain.OpUpdate, ID: target, Err: replaceErr}
		}
	}
	if err != nil {
		c.fail(ctx, span, domain.OpUpdate, "Failed to update product", err)
		return domain.Product{}, err
	}

	c.resetForm()
	c.notice = nil

	c.record(ctx, domain.OpUpdate, "success")
	c.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", target.String()),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return updated, nil
}

func (c *ProductFormListController) prepareUpdate(ctx context.Context, span trace.Span, draft domain.Draft) (domain.ProductID, domain.Product, error) {
	product, err := domain.Validate(draft)

	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.editTarget
	if target == "" {
		c.warn(ctx, span, domain.OpUpdate, domain.ErrNotEditing)
		return "", domain.Product{}, domain.ErrNotEditing
	}
	if c.inflight.busy(formKey, productKey(target)) {
		c.warn(ctx, span, domain.OpUpdate, domain.ErrRequestInFlight)
		return "", domain.Product{}, domain.ErrRequestInFlight
	}
	if err != nil {
		c.rejectDraft(ctx, span, domain.OpUpdate, err)
		return "", domain.Product{}, err
	}

	c.inflight.acquire(formKey, productKey(target))
	return target, product, nil
}

// Submit sends the current form: a create in create mode, an update in edit
// mode.
func (c *ProductFormListController) Submit(ctx context.Context) (domain.Product, error) {
	c.mu.Lock()
	draft, editing := c.draft, c.editTarget != ""
	c.mu.Unlock()

	if editing {
		return c.UpdateProduct(ctx, draft)
	}
	return c.AddProduct(ctx, draft)
}

// DeleteProduct deletes the product on the backend and then drops it from
// the collection. Deleting the product being edited also resets the form.
// A failed delete, including a 404, leaves the collection as it was.
func (c *ProductFormListController) DeleteProduct(ctx context.Context, id domain.ProductID) error {
	ctx, span := c.tracer.Start(ctx, "ProductFormListController.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	if err := c.acquire(ctx, span, domain.OpDelete, productKey(id)); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Deleting product",
		slog.String("product_id", id.String()),
	)

	err := c.gateway.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight.release(productKey(id))

	if err != nil {
		c.fail(ctx, span, domain.OpDelete, "Failed to delete product", err)
		return err
	}

	removed := c.collection.Remove(ctx, id)
	if id == c.editTarget {
		c.resetForm()
	}
	c.notice = nil

	span.SetAttributes(attribute.Bool("product.removed", removed))
	c.record(ctx, domain.OpDelete, "success")
	c.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id.String()),
		slog.Bool("removed", removed),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// CancelEdit discards the draft and returns to create mode.
func (c *ProductFormListController) CancelEdit(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "ProductFormListController.CancelEdit")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight.busy(formKey) {
		c.warn(ctx, span, opCancelEdit, domain.ErrRequestInFlight)
		return domain.ErrRequestInFlight
	}

	c.resetForm()
	c.notice = nil
	c.record(ctx, opCancelEdit, "success")
	return nil
}

// SetField changes one draft field.
func (c *ProductFormListController) SetField(ctx context.Context, field, value string) error {
	return c.SetFields(ctx, map[string]string{field: value})
}

// SetFields changes several draft fields at once. Either all of them are
// applied or none.
func (c *ProductFormListController) SetFields(ctx context.Context, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight.busy(formKey) {
		return domain.ErrRequestInFlight
	}

	draft := c.draft
	for name, value := range fields {
		var err error
		if draft, err = draft.With(name, value); err != nil {
			c.record(ctx, opSetField, "invalid")
			return err
		}
	}
	c.draft = draft
	return nil
}

// Form returns the current form state.
func (c *ProductFormListController) Form(ctx context.Context) *dto.FormView {
	c.mu.Lock()
	defer c.mu.Unlock()

	return dto.NewFormView(c.draft, c.editTarget, c.inflight.busy(formKey), c.notice)
}

// Products returns every product in display order.
func (c *ProductFormListController) Products(ctx context.Context) []domain.Product {
	return c.collection.All(ctx)
}

// ProductsPage returns the current window of the product table.
func (c *ProductFormListController) ProductsPage(ctx context.Context) *dto.PageResponse {
	ctx, span := c.tracer.Start(ctx, "ProductFormListController.ProductsPage")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.collection.Len()
	items := domain.Page(c.collection.All(ctx), c.pager.Index(), c.pager.Size())

	span.SetAttributes(
		attribute.Int("page.index", c.pager.Index()),
		attribute.Int("page.size", c.pager.Size()),
		attribute.Int("page.items", len(items)),
	)

	return &dto.PageResponse{
		Items:           dto.ToProductResponseList(items),
		Page:            c.pager.Index(),
		PageSize:        c.pager.Size(),
		PageCount:       domain.PageCount(total, c.pager.Size()),
		Total:           total,
		PageSizeOptions: c.pager.Options(),
	}
}

// SetPage moves the list window to page index i.
func (c *ProductFormListController) SetPage(ctx context.Context, i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pager.SetPage(i)
}

// SetPageSize changes the window size and returns to the first page.
func (c *ProductFormListController) SetPageSize(ctx context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pager.SetPageSize(n)
}

// acquire marks key as in flight or fails when it already is.
func (c *ProductFormListController) acquire(ctx context.Context, span trace.Span, op, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight.busy(key) {
		c.warn(ctx, span, op, domain.ErrRequestInFlight)
		return domain.ErrRequestInFlight
	}
	c.inflight.acquire(key)
	return nil
}

func (c *ProductFormListController) resetForm() {
	c.draft = domain.Draft{}
	c.editTarget = ""
}

// acceptLoaded drops loaded records without id, with a duplicate id or
// failing the field rules.
func (c *ProductFormListController) acceptLoaded(ctx context.Context, products []domain.Product) []domain.Product {
	seen := make(map[domain.ProductID]struct{}, len(products))
	accepted := make([]domain.Product, 0, len(products))

	for _, p := range products {
		var reason string
		if p.ID == "" {
			reason = domain.ErrMissingProductID.Error()
		} else if _, dup := seen[p.ID]; dup {
			reason = domain.ErrDuplicateProduct.Error()
		} else if err := domain.ValidateProduct(p); err != nil {
			reason = err.Error()
		}

		if reason != "" {
			c.logger.WarnContext(ctx, "Skipping product from backend",
				slog.String("product_id", p.ID.String()),
				slog.String("reason", reason),
			)
			continue
		}

		seen[p.ID] = struct{}{}
		accepted = append(accepted, p)
	}
	return accepted
}

// canonical checks a record returned by the backend. When expected is set the
// record must carry that id; a missing id is filled in.
func canonical(op string, expected domain.ProductID, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		if expected == "" {
			return domain.Product{}, &domain.GatewayError{Op: op, Err: domain.ErrMissingProductID}
		}
		p.ID = expected
	}
	if expected != "" && p.ID != expected {
		return domain.Product{}, &domain.GatewayError{
			Op:  op,
			ID:  expected,
			Err: errors.Errorf("response carries id %q", p.ID),
		}
	}
	if err := domain.ValidateProduct(p); err != nil {
		return domain.Product{}, &domain.GatewayError{
			Op:  op,
			ID:  p.ID,
			Err: errors.Wrap(err, "canonical record rejected"),
		}
	}
	return p, nil
}

// rejectDraft surfaces a validation failure. The draft is left untouched so
// the user can correct it.
func (c *ProductFormListController) rejectDraft(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "Validation failed")

	c.logger.WarnContext(ctx, "Draft rejected",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)

	c.validationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	c.record(ctx, op, "invalid")

	notice := domain.Notice{Level: domain.NoticeError, Message: domain.ValidationNotice}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		notice.Fields = ve.Errors
	}
	c.raise(ctx, notice)
}

// warn surfaces a rejected action that did not reach the backend.
func (c *ProductFormListController) warn(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	c.logger.WarnContext(ctx, "Action rejected",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)

	c.record(ctx, op, resultOf(err))
	c.raise(ctx, domain.Notice{Level: domain.NoticeWarning, Message: capitalize(err.Error())})
}

// fail surfaces a failed backend exchange. Local state is left as it was.
func (c *ProductFormListController) fail(ctx context.Context, span trace.Span, op, message string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)

	c.logger.ErrorContext(ctx, message,
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)

	c.record(ctx, op, resultOf(err))
	c.raise(ctx, domain.Notice{Level: domain.NoticeError, Message: message})
}

func (c *ProductFormListController) raise(ctx context.Context, notice domain.Notice) {
	notice.Time = time.Now()
	c.notice = &notice
	c.notifier.Notify(ctx, notice)
}

func (c *ProductFormListController) record(ctx context.Context, op, result string) {
	c.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("result", result),
		),
	)
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRequestInFlight), errors.Is(err, domain.ErrNotEditing), errors.Is(err, domain.ErrEditInProgress):
		return "conflict"
	default:
		return "failure"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
