package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

// ProductRepository is a SQLite implementation of domain.ProductRepository.
// Prices are stored as exact decimal strings, never floats. The three image
// columns are written together or not at all.
type ProductRepository struct {
	db     *sql.DB
	tracer trace.Tracer
	logger *slog.Logger
}

// NewProductRepository opens the database at dbPath and verifies the
// connection.
func NewProductRepository(dbPath string, tracer trace.Tracer, logger *slog.Logger) (*ProductRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &ProductRepository{db: db, tracer: tracer, logger: logger}, nil
}

// RunMigrations applies all pending migrations from migrationsPath.
func (r *ProductRepository) RunMigrations(migrationsPath string) error {
	driver, err := migratesqlite.WithInstance(r.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database handle.
func (r *ProductRepository) Close() error {
	return r.db.Close()
}

// Save upserts the product, assigning an ID on first save.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	saved := *product
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}

	span.SetAttributes(
		attribute.String("product.id", saved.ID),
		attribute.String("product.name", saved.Name),
	)

	var imageName, imageType sql.NullString
	var imageData []byte
	if saved.Image != nil {
		imageName = sql.NullString{String: saved.Image.FileName, Valid: true}
		imageType = sql.NullString{String: saved.Image.ContentType, Valid: true}
		imageData = saved.Image.Data
	}

	query := `
		INSERT INTO products (id, name, description, price, image_file_name, image_content_type, image_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			image_file_name = excluded.image_file_name,
			image_content_type = excluded.image_content_type,
			image_data = excluded.image_data,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		saved.ID,
		saved.Name,
		saved.Description,
		saved.Price.String(),
		imageName,
		imageType,
		imageData,
		saved.CreatedAt,
		saved.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save product")
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	r.logger.InfoContext(ctx, "Product saved in repository",
		slog.String("product_id", saved.ID),
		slog.String("product_name", saved.Name),
	)

	span.SetStatus(codes.Ok, "Product saved successfully")
	return &saved, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	query := `
		SELECT id, name, description, price, image_file_name, image_content_type, image_data, created_at, updated_at
		FROM products
		WHERE id = ?
	`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.RecordError(domain.ErrProductNotFound)
			span.SetStatus(codes.Error, "Product not found")
			r.logger.WarnContext(ctx, "Product not found",
				slog.String("product_id", id),
			)
			return nil, domain.ErrProductNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query product")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, nil
}

// FindAll retrieves all products
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	query := `
		SELECT id, name, description, price, image_file_name, image_content_type, image_data, created_at, updated_at
		FROM products
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to scan product")
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration error")
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// DeleteByID removes a product row. Unknown IDs are a no-op; the service
// layer performs the existence check.
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p         domain.Product
		priceText string
		imageName sql.NullString
		imageType sql.NullString
		imageData []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&priceText,
		&imageName,
		&imageType,
		&imageData,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", priceText, err)
	}
	p.Price = price

	if imageName.Valid {
		p.Image = &domain.ProductImage{
			FileName:    imageName.String,
			ContentType: imageType.String,
			Data:        imageData,
		}
	}

	return &p, nil
}
