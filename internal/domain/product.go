package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBadProductName        = errors.New("product name is required")
	ErrBadProductDescription = errors.New("product description is required")
	ErrBadProductPrice       = errors.New("product price must be positive")
)

// priceScale is the number of fractional digits every stored price carries.
const priceScale = 2

// ProductImage is the uploaded file attached to a product. The three fields
// always travel together; a product either has a complete image or none.
type ProductImage struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Product represents the product entity
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       *ProductImage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct creates a new product with validation. The ID is left empty;
// the repository assigns one on first save. A nil price means the caller
// supplied none.
func NewProduct(name, description string, price *decimal.Decimal) (*Product, error) {
	if err := validate(name, description, price); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Product{
		Name:        name,
		Description: description,
		Price:       NormalizePrice(*price),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyUpdate replaces the product's name, description and price with the
// given values, keeping its identity, timestamps and image untouched. The
// replacement values are validated as a whole before anything is written.
func (p *Product) ApplyUpdate(name, description string, price *decimal.Decimal) error {
	if err := validate(name, description, price); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.Price = NormalizePrice(*price)
	p.UpdatedAt = time.Now()
	return nil
}

// validate runs the business rules in a fixed order and stops at the first
// violation. No trimming: a whitespace-only name is a valid name.
func validate(name, description string, price *decimal.Decimal) error {
	if name == "" {
		return ErrBadProductName
	}
	if description == "" {
		return ErrBadProductDescription
	}
	if price == nil {
		return ErrBadProductPrice
	}
	if !price.IsPositive() {
		return ErrBadProductPrice
	}
	return nil
}

// NormalizePrice rounds a price to two fractional digits, always toward
// positive infinity. 9.995 becomes 10.00, never 9.99.
func NormalizePrice(price decimal.Decimal) decimal.Decimal {
	return price.Shift(priceScale).Ceil().Shift(-priceScale)
}
