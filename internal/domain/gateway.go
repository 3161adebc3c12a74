package domain

import (
	"context"
	"fmt"
	"net/http"
)

// SyncGateway is the boundary to the remote products service. It holds no
// state; every call returns the backend's canonical view.
type SyncGateway interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id ProductID, product Product) (Product, error)
	Delete(ctx context.Context, id ProductID) error
}

// Gateway operation names.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// GatewayError reports a failed exchange with the backend. Status is zero
// when no HTTP response was received.
type GatewayError struct {
	Op     string
	ID     ProductID
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	msg := "gateway " + e.Op
	if e.ID != "" {
		msg += " " + string(e.ID)
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is lets a 404 from the backend match ErrProductNotFound.
func (e *GatewayError) Is(target error) bool {
	return target == ErrProductNotFound && e.Status == http.StatusNotFound
}
