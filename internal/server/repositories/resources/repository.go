// Package resources is the generic storage layer behind the CRUD
// handlers: one Repository contract, a Postgres implementation driven
// by a query.Schema, and decorators that add scope predicates or side
// effects around a base repository.
package resources

import (
	"context"

	"github.com/dmitrijs2005/tourbook/internal/server/query"
)

// Repository stores documents of type T. Every method that addresses a
// single document returns common.ErrRecordNotFound when it is absent.
type Repository[T any] interface {
	Create(ctx context.Context, item *T) (*T, error)
	FindByID(ctx context.Context, id string, expand ...string) (*T, error)
	Find(ctx context.Context, d query.Descriptor) ([]*T, error)
	// UpdateByID applies patch (client field names) and re-validates.
	UpdateByID(ctx context.Context, id string, patch map[string]any) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

// Validator is implemented by every stored model.
type Validator interface {
	Validate() error
}

// Preparer normalizes derived fields before validation.
type Preparer interface {
	Prepare()
}
