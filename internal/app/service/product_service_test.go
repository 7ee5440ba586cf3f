package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mrops-br/products-catalog-api/internal/app/dto"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// mockRepository implements domain.ProductRepository and counts every call.
type mockRepository struct {
	products map[string]*domain.Product

	saveCalls    int
	findCalls    int
	findAllCalls int
	deleteCalls  int

	lastSaved *domain.Product
	saveErr   error
}

func newMockRepository(seed ...*domain.Product) *mockRepository {
	m := &mockRepository{products: make(map[string]*domain.Product)}
	for _, p := range seed {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockRepository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	m.saveCalls++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	saved := *product
	if saved.ID == "" {
		saved.ID = "generated-id"
	}
	m.products[saved.ID] = &saved
	m.lastSaved = &saved
	return &saved, nil
}

func (m *mockRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	m.findCalls++
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	found := *p
	return &found, nil
}

func (m *mockRepository) FindAll(_ context.Context) ([]*domain.Product, error) {
	m.findAllCalls++
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepository) DeleteByID(_ context.Context, id string) error {
	m.deleteCalls++
	delete(m.products, id)
	return nil
}

type stubFile struct {
	name        string
	contentType string
	data        []byte
	err         error
}

func (f stubFile) Filename() string       { return f.name }
func (f stubFile) ContentType() string    { return f.contentType }
func (f stubFile) Bytes() ([]byte, error) { return f.data, f.err }

func newTestService(repo domain.ProductRepository) *ProductService {
	return NewProductService(
		repo,
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func priceOf(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return &d
}

func existingProduct(t *testing.T, id string) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct("A", "D", priceOf(t, "1.00"))
	require.NoError(t, err)
	p.ID = id
	return p
}

func TestCreateProduct_HappyPathWithoutFile(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo)

	resp, err := sut.CreateProduct(context.Background(), &dto.CreateProductRequest{
		Name:        "Burger",
		Description: "A juicy burger",
		Price:       priceOf(t, "4.995"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.saveCalls)
	assert.Equal(t, "generated-id", resp.ID)
	assert.Equal(t, "Burger", resp.Name)
	assert.Equal(t, "A juicy burger", resp.Description)
	assert.True(t, resp.Price.Equal(decimal.RequireFromString("5.00")), "price rounds up to 2 decimals")
	assert.Nil(t, resp.Image)
}

func TestCreateProduct_HappyPathWithFile(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo)

	resp, err := sut.CreateProduct(context.Background(), &dto.CreateProductRequest{
		Name:        "Burger",
		Description: "A juicy burger",
		Price:       priceOf(t, "4.99"),
	}, stubFile{name: "photo.jpg", contentType: "image/jpeg", data: []byte{0x01, 0x02, 0x03}})
	require.NoError(t, err)

	require.NotNil(t, resp.Image)
	assert.Equal(t, "photo.jpg", resp.Image.FileName)
	assert.Equal(t, "image/jpeg", resp.Image.ContentType)
	assert.Equal(t, 3, resp.Image.Size)

	require.NotNil(t, repo.lastSaved.Image)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, repo.lastSaved.Image.Data)
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		req     *dto.CreateProductRequest
		wantErr error
	}{
		{"empty name", &dto.CreateProductRequest{Name: "", Description: "D", Price: priceOf(t, "1")}, domain.ErrBadProductName},
		{"empty description", &dto.CreateProductRequest{Name: "N", Description: "", Price: priceOf(t, "1")}, domain.ErrBadProductDescription},
		{"missing price", &dto.CreateProductRequest{Name: "N", Description: "D"}, domain.ErrBadProductPrice},
		{"zero price", &dto.CreateProductRequest{Name: "N", Description: "D", Price: priceOf(t, "0")}, domain.ErrBadProductPrice},
		{"negative price", &dto.CreateProductRequest{Name: "N", Description: "D", Price: priceOf(t, "-1")}, domain.ErrBadProductPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockRepository()
			sut := newTestService(repo)

			_, err := sut.CreateProduct(context.Background(), tc.req, nil)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 0, repo.saveCalls, "validation failure must abort before save")
		})
	}
}

func TestCreateProduct_TraversalFileName(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo)

	_, err := sut.CreateProduct(context.Background(), &dto.CreateProductRequest{
		Name:        "N",
		Description: "D",
		Price:       priceOf(t, "1.00"),
	}, stubFile{name: ".."})

	assert.ErrorIs(t, err, domain.ErrInvalidFile)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestCreateProduct_FileReadFailure(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo)

	readErr := io.ErrUnexpectedEOF
	_, err := sut.CreateProduct(context.Background(), &dto.CreateProductRequest{
		Name:        "N",
		Description: "D",
		Price:       priceOf(t, "1.00"),
	}, stubFile{name: "photo.png", contentType: "image/png", err: readErr})

	assert.ErrorIs(t, err, domain.ErrInvalidFile)
	assert.False(t, errors.Is(err, readErr), "raw I/O error must not escape the service")
	assert.Equal(t, 0, repo.saveCalls)
}

func TestGetProductByID_HappyPath(t *testing.T) {
	repo := newMockRepository(existingProduct(t, "p-1"))
	sut := newTestService(repo)

	resp, err := sut.GetProductByID(context.Background(), "p-1")
	require.NoError(t, err)

	assert.Equal(t, "p-1", resp.ID)
	assert.Equal(t, "A", resp.Name)
	assert.Equal(t, "D", resp.Description)
	assert.True(t, resp.Price.Equal(decimal.RequireFromString("1.00")))
}

func TestGetProductByID_NotFound(t *testing.T) {
	sut := newTestService(newMockRepository())

	_, err := sut.GetProductByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetAfterCreate_ReturnsLastSavedState(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo)

	created, err := sut.CreateProduct(context.Background(), &dto.CreateProductRequest{
		Name:        "Burger",
		Description: "A juicy burger",
		Price:       priceOf(t, "4.99"),
	}, nil)
	require.NoError(t, err)

	fetched, err := sut.GetProductByID(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Description, fetched.Description)
	assert.True(t, created.Price.Equal(fetched.Price))
	assert.Equal(t, created.Image, fetched.Image)
}

func TestListProducts(t *testing.T) {
	repo := newMockRepository(existingProduct(t, "p-1"), existingProduct(t, "p-2"))
	sut := newTestService(repo)

	resp, err := sut.ListProducts(context.Background())
	require.NoError(t, err)

	assert.Len(t, resp, 2)
	assert.Equal(t, 1, repo.findAllCalls)
}

func TestDeleteProduct_HappyPath(t *testing.T) {
	repo := newMockRepository(existingProduct(t, "p-1"))
	sut := newTestService(repo)

	require.NoError(t, sut.DeleteProduct(context.Background(), "p-1"))

	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, 1, repo.deleteCalls)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo)

	err := sut.DeleteProduct(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 0, repo.deleteCalls, "delete must not reach the repository for unknown IDs")
}

func TestUpdateProduct_NotFound(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo)

	_, err := sut.UpdateProduct(context.Background(), &dto.UpdateProductRequest{
		ID:          "missing",
		Name:        "N",
		Description: "D",
		Price:       priceOf(t, "1.00"),
	}, nil)

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestUpdateProduct_AllFields(t *testing.T) {
	existing := existingProduct(t, "p-1")
	existing.Image = &domain.ProductImage{FileName: "old.png", ContentType: "image/png", Data: []byte{0xFF}}
	repo := newMockRepository(existing)
	sut := newTestService(repo)

	newBytes := []byte("<<gif data>>")
	resp, err := sut.UpdateProduct(context.Background(), &dto.UpdateProductRequest{
		ID:          "p-1",
		Name:        "A2",
		Description: "D2",
		Price:       priceOf(t, "9.995"),
	}, stubFile{name: "new.gif", contentType: "image/gif", data: newBytes})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.saveCalls)
	assert.Equal(t, "p-1", resp.ID)
	assert.Equal(t, "A2", resp.Name)
	assert.Equal(t, "D2", resp.Description)
	assert.True(t, resp.Price.Equal(decimal.RequireFromString("10.00")), "9.995 rounds up to 10.00")

	require.NotNil(t, repo.lastSaved.Image)
	assert.Equal(t, "new.gif", repo.lastSaved.Image.FileName)
	assert.Equal(t, "image/gif", repo.lastSaved.Image.ContentType)
	assert.Equal(t, newBytes, repo.lastSaved.Image.Data)
}

func TestUpdateProduct_WithoutFileKeepsImage(t *testing.T) {
	existing := existingProduct(t, "p-1")
	existing.Image = &domain.ProductImage{FileName: "old.png", ContentType: "image/png", Data: []byte{0xFF}}
	repo := newMockRepository(existing)
	sut := newTestService(repo)

	resp, err := sut.UpdateProduct(context.Background(), &dto.UpdateProductRequest{
		ID:          "p-1",
		Name:        "A2",
		Description: "D2",
		Price:       priceOf(t, "2.00"),
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, resp.Image)
	assert.Equal(t, "old.png", resp.Image.FileName)
	require.NotNil(t, repo.lastSaved.Image)
	assert.Equal(t, []byte{0xFF}, repo.lastSaved.Image.Data)
}

func TestUpdateProduct_InvalidMergedCandidate(t *testing.T) {
	repo := newMockRepository(existingProduct(t, "p-1"))
	sut := newTestService(repo)

	_, err := sut.UpdateProduct(context.Background(), &dto.UpdateProductRequest{
		ID:          "p-1",
		Name:        "",
		Description: "D2",
		Price:       priceOf(t, "2.00"),
	}, nil)

	assert.ErrorIs(t, err, domain.ErrBadProductName)
	assert.Equal(t, 0, repo.saveCalls)

	// Stored record stays untouched.
	stored, findErr := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, findErr)
	assert.Equal(t, "A", stored.Name)
}

func TestUpdateProduct_FileFailureLeavesStoreUntouched(t *testing.T) {
	repo := newMockRepository(existingProduct(t, "p-1"))
	sut := newTestService(repo)

	_, err := sut.UpdateProduct(context.Background(), &dto.UpdateProductRequest{
		ID:          "p-1",
		Name:        "A2",
		Description: "D2",
		Price:       priceOf(t, "2.00"),
	}, stubFile{name: ".."})

	assert.ErrorIs(t, err, domain.ErrInvalidFile)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestGetProductImage(t *testing.T) {
	withImage := existingProduct(t, "p-1")
	withImage.Image = &domain.ProductImage{FileName: "a.png", ContentType: "image/png", Data: []byte{1, 2}}
	repo := newMockRepository(withImage, existingProduct(t, "p-2"))
	sut := newTestService(repo)

	img, err := sut.GetProductImage(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []byte{1, 2}, img.Data)

	_, err = sut.GetProductImage(context.Background(), "p-2")
	assert.ErrorIs(t, err, domain.ErrProductNotFound, "product without image reports not found")

	_, err = sut.GetProductImage(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
