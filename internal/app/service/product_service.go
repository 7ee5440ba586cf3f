package service

import (
	"context"
	"log/slog"

	"github.com/mrops-br/products-catalog-api/internal/app/dto"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	// Initialize metrics
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

// recordOperation counts one service operation with its outcome.
func (s *ProductService) recordOperation(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// CreateProduct validates the candidate, absorbs the optional file payload
// and stores the result. Nothing reaches the repository unless both
// validation and file handling succeed.
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest, file domain.FilePayload) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.name", req.Name))

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", req.Name),
		slog.Bool("has_file", file != nil),
	)

	product, err := domain.NewProduct(req.Name, req.Description, req.Price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.logger.ErrorContext(ctx, "Failed to create product",
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "create", "failure")
		return nil, err
	}

	if err := product.AttachFile(file); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "File handling failed")
		s.logger.ErrorContext(ctx, "Failed to attach product image",
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "create", "failure")
		return nil, err
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store product")
		s.logger.ErrorContext(ctx, "Failed to store product",
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "create", "failure")
		return nil, err
	}

	span.SetAttributes(attribute.String("product.id", saved.ID))

	s.productCreatedCounter.Add(ctx, 1)
	s.recordOperation(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", saved.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.ToProductResponse(saved), nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		s.recordOperation(ctx, "read", "not_found")
		return nil, err
	}

	s.recordOperation(ctx, "read", "success")

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.ToProductResponse(product), nil
}

// GetProductImage retrieves the image attached to a product. Products
// without an image report not-found, same as missing products.
func (s *ProductService) GetProductImage(ctx context.Context, id string) (*domain.ProductImage, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductImage")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		s.recordOperation(ctx, "read_image", "not_found")
		return nil, err
	}

	if product.Image == nil {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product has no image")
		s.logger.WarnContext(ctx, "Product has no image",
			slog.String("product_id", id),
		)
		s.recordOperation(ctx, "read_image", "not_found")
		return nil, domain.ErrProductNotFound
	}

	s.recordOperation(ctx, "read_image", "success")

	span.SetStatus(codes.Ok, "Product image retrieved successfully")
	return product.Image, nil
}

// ListProducts retrieves all products in whatever order the repository
// yields them.
func (s *ProductService) ListProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve products")
		s.logger.ErrorContext(ctx, "Failed to list products",
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "list", "failure")
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.recordOperation(ctx, "list", "success")

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.ToProductResponseList(products), nil
}

// UpdateProduct edits an existing product. Name, description and price are
// replaced wholesale from the request; the stored image survives unless a
// replacement file accompanies the edit. The save is skipped entirely when
// the product does not exist or the merged candidate fails validation.
func (s *ProductService) UpdateProduct(ctx context.Context, req *dto.UpdateProductRequest, file domain.FilePayload) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", req.ID))

	s.logger.InfoContext(ctx, "Updating product",
		slog.String("product_id", req.ID),
		slog.Bool("has_file", file != nil),
	)

	existing, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", req.ID),
		)
		s.recordOperation(ctx, "update", "not_found")
		return nil, err
	}

	// Work on a copy so a failed validation or file read leaves the stored
	// record untouched.
	merged := *existing

	if err := merged.ApplyUpdate(req.Name, req.Description, req.Price); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.logger.ErrorContext(ctx, "Failed to update product",
			slog.String("product_id", req.ID),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "update", "failure")
		return nil, err
	}

	if err := merged.AttachFile(file); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "File handling failed")
		s.logger.ErrorContext(ctx, "Failed to attach product image",
			slog.String("product_id", req.ID),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "update", "failure")
		return nil, err
	}

	saved, err := s.repo.Save(ctx, &merged)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store product")
		s.logger.ErrorContext(ctx, "Failed to store product",
			slog.String("product_id", req.ID),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "update", "failure")
		return nil, err
	}

	s.recordOperation(ctx, "update", "success")

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", saved.ID),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return dto.ToProductResponse(saved), nil
}

// DeleteProduct removes a product by ID. The lookup is what produces a
// distinguishable not-found error; the repository delete is only invoked
// for records that exist.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		s.recordOperation(ctx, "delete", "not_found")
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		s.logger.ErrorContext(ctx, "Failed to delete product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "delete", "failure")
		return err
	}

	s.recordOperation(ctx, "delete", "success")

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}
