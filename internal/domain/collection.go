package domain

import "context"

// ProductCollection is the ordered, in-memory mirror of the backend's
// products. Insertion order is display order and ids are unique.
type ProductCollection interface {
	// Reset replaces the whole content.
	Reset(ctx context.Context, products []Product) error
	Append(ctx context.Context, product Product) error
	// Replace swaps the element with the given id in place.
	Replace(ctx context.Context, id ProductID, product Product) error
	// Remove deletes the element with the given id and reports whether it existed.
	Remove(ctx context.Context, id ProductID) bool
	FindByID(ctx context.Context, id ProductID) (Product, error)
	All(ctx context.Context) []Product
	Len() int
}
