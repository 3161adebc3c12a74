package domain

import "github.com/go-faster/errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product already present")
	ErrMissingProductID = errors.New("product id is missing")
	ErrUnknownField     = errors.New("unknown form field")

	ErrNotEditing      = errors.New("no product is being edited")
	ErrEditInProgress  = errors.New("finish or cancel the current edit first")
	ErrRequestInFlight = errors.New("a request for this item is still in progress")
)
