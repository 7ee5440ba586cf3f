package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the contract for product storage
type ProductRepository interface {
	// Save persists the product, assigning an ID when it has none yet, and
	// returns the stored record. Saving an already-identified product acts
	// as an update.
	Save(ctx context.Context, product *Product) (*Product, error)
	// FindByID returns ErrProductNotFound when no record matches.
	FindByID(ctx context.Context, id string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	DeleteByID(ctx context.Context, id string) error
}
