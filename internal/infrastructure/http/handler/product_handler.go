package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/products-catalog-api/internal/app/dto"
	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/response"
	"github.com/shopspring/decimal"
)

// imageFormField is the multipart field carrying the product image.
const imageFormField = "image"

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service        *service.ProductService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger, maxUploadBytes int64) *ProductHandler {
	return &ProductHandler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// multipartFile adapts a parsed multipart part to domain.FilePayload.
type multipartFile struct {
	header *multipart.FileHeader
}

func (f *multipartFile) Filename() string {
	return f.header.Filename
}

func (f *multipartFile) ContentType() string {
	return f.header.Header.Get("Content-Type")
}

func (f *multipartFile) Bytes() ([]byte, error) {
	file, err := f.header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// parseProductForm extracts name, description, price and the optional image
// from the request. Multipart bodies carry the fields as form values; plain
// JSON bodies never carry a file.
func (h *ProductHandler) parseProductForm(r *http.Request) (*dto.CreateProductRequest, domain.FilePayload, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, nil, err
		}

		req := &dto.CreateProductRequest{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
		}
		if raw := r.FormValue("price"); raw != "" {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, nil, err
			}
			req.Price = &price
		}

		var file domain.FilePayload
		if r.MultipartForm != nil && len(r.MultipartForm.File[imageFormField]) > 0 {
			file = &multipartFile{header: r.MultipartForm.File[imageFormField][0]}
		}
		return req, file, nil
	}

	var req dto.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, err
	}
	return &req, nil, nil
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, file, err := h.parseProductForm(r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req, file)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// GetProductImage handles GET /products/{id}/image and serves the stored
// image bytes with their stored content type.
func (h *ProductHandler) GetProductImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	image, err := h.service.GetProductImage(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	response.Blob(w, http.StatusOK, image.ContentType, image.Data)
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, products)
}

// UpdateProduct handles PUT /products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	req, file, err := h.parseProductForm(r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	updateReq := &dto.UpdateProductRequest{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}

	product, err := h.service.UpdateProduct(r.Context(), updateReq, file)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}

	response.NoContent(w)
}

// respondServiceError maps the domain error taxonomy to HTTP statuses.
func (h *ProductHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadProductName),
		errors.Is(err, domain.ErrBadProductDescription),
		errors.Is(err, domain.ErrBadProductPrice),
		errors.Is(err, domain.ErrInvalidFile):
		response.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, err)
	default:
		response.Error(w, http.StatusInternalServerError, err)
	}
}
