package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/mrops-br/products-form/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductCollection is an in-memory implementation of domain.ProductCollection
type ProductCollection struct {
	mu       sync.RWMutex
	products []domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductCollection creates an empty collection
func NewProductCollection(tracer trace.Tracer, logger *slog.Logger) *ProductCollection {
	return &ProductCollection{
		tracer: tracer,
		logger: logger,
	}
}

// Reset replaces the content with products, in order
func (c *ProductCollection) Reset(ctx context.Context, products []domain.Product) error {
	ctx, span := c.tracer.Start(ctx, "ProductCollection.Reset")
	defer span.End()

	seen := make(map[domain.ProductID]struct{}, len(products))
	for _, p := range products {
		if p.ID == "" {
			span.RecordError(domain.ErrMissingProductID)
			span.SetStatus(codes.Error, "Product without id")
			return domain.ErrMissingProductID
		}
		if _, dup := seen[p.ID]; dup {
			err := errors.Wrapf(domain.ErrDuplicateProduct, "id %s", p.ID)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Duplicate product id")
			return err
		}
		seen[p.ID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = slices.Clone(products)

	span.SetAttributes(attribute.Int("product.count", len(products)))
	c.logger.DebugContext(ctx, "Collection reset",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Collection reset")
	return nil
}

// Append adds a product at the end of the collection
func (c *ProductCollection) Append(ctx context.Context, product domain.Product) error {
	ctx, span := c.tracer.Start(ctx, "ProductCollection.Append")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", product.ID.String()),
		attribute.String("product.name", product.Name),
	)

	if product.ID == "" {
		span.RecordError(domain.ErrMissingProductID)
		span.SetStatus(codes.Error, "Product without id")
		return domain.ErrMissingProductID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(product.ID) >= 0 {
		err := errors.Wrapf(domain.ErrDuplicateProduct, "id %s", product.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Duplicate product id")
		return err
	}

	c.products = append(c.products, product)

	c.logger.DebugContext(ctx, "Product appended to collection",
		slog.String("product_id", product.ID.String()),
		slog.Int("count", len(c.products)),
	)

	span.SetStatus(codes.Ok, "Product appended")
	return nil
}

// Replace swaps the product with the given id, keeping its position
func (c *ProductCollection) Replace(ctx context.Context, id domain.ProductID, product domain.Product) error {
	ctx, span := c.tracer.Start(ctx, "ProductCollection.Replace")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}
	if product.ID != id {
		if other := c.indexOf(product.ID); other >= 0 || product.ID == "" {
			err := errors.Wrapf(domain.ErrDuplicateProduct, "replacement id %q", product.ID)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Replacement id conflicts")
			return err
		}
	}

	c.products[idx] = product

	c.logger.DebugContext(ctx, "Product replaced in collection",
		slog.String("product_id", id.String()),
		slog.Int("position", idx),
	)

	span.SetStatus(codes.Ok, "Product replaced")
	return nil
}

// Remove deletes the product with the given id
func (c *ProductCollection) Remove(ctx context.Context, id domain.ProductID) bool {
	ctx, span := c.tracer.Start(ctx, "ProductCollection.Remove")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		c.logger.DebugContext(ctx, "Product already absent from collection",
			slog.String("product_id", id.String()),
		)
		span.SetAttributes(attribute.Bool("product.removed", false))
		return false
	}

	c.products = slices.Delete(c.products, idx, idx+1)

	c.logger.DebugContext(ctx, "Product removed from collection",
		slog.String("product_id", id.String()),
		slog.Int("count", len(c.products)),
	)

	span.SetAttributes(attribute.Bool("product.removed", true))
	return true
}

// FindByID retrieves a product by ID
func (c *ProductCollection) FindByID(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "ProductCollection.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.indexOf(id)
	if idx < 0 {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		c.logger.WarnContext(ctx, "Product not found in collection",
			slog.String("product_id", id.String()),
		)
		return domain.Product{}, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	return c.products[idx], nil
}

// All returns a copy of the products in display order
func (c *ProductCollection) All(ctx context.Context) []domain.Product {
	_, span := c.tracer.Start(ctx, "ProductCollection.All")
	defer span.End()

	c.mu.RLock()
	defer c.mu.RUnlock()

	span.SetAttributes(attribute.Int("product.count", len(c.products)))
	return slices.Clone(c.products)
}

// Len returns the number of products
func (c *ProductCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *ProductCollection) indexOf(id domain.ProductID) int {
	return slices.IndexFunc(c.products, func(p domain.Product) bool {
		return p.ID == id
	})
}
