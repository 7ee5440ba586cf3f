package dto

import (
	"time"

	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents the request to create a product. Price is
// a pointer so an absent price is distinguishable from zero.
type CreateProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

// UpdateProductRequest represents the request to edit a product. Name,
// description and price fully replace the stored values; there is no
// field-level patching.
type UpdateProductRequest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

// ImageResponse describes an attached image without its payload.
type ImageResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       *ImageResponse  `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	resp := &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Image != nil {
		resp.Image = &ImageResponse{
			FileName:    p.Image.FileName,
			ContentType: p.Image.ContentType,
			Size:        len(p.Image.Data),
		}
	}
	return resp
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
