package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

type stubProductRepo struct {
	createFn     func(ctx context.Context, product *models.Product) (*models.Product, error)
	saveFn       func(ctx context.Context, product *models.Product) (*models.Product, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) (int64, error)
	findByIDFn   func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	findBySlugFn func(ctx context.Context, slug string) (*models.Product, error)
	browseFn     func(ctx context.Context, query browseQuery) ([]models.Product, int64, error)
	relatedFn    func(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error)
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if s.createFn != nil {
		return s.createFn(ctx, product)
	}
	return product, nil
}

func (s *stubProductRepo) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, product)
	}
	return product, nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return 0, nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if s.findBySlugFn != nil {
		return s.findBySlugFn(ctx, slug)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) Browse(ctx context.Context, query browseQuery) ([]models.Product, int64, error) {
	if s.browseFn != nil {
		return s.browseFn(ctx, query)
	}
	return nil, 0, nil
}

func (s *stubProductRepo) List(ctx context.Context, page pagination.Params) ([]models.Product, int64, error) {
	return nil, 0, nil
}

func (s *stubProductRepo) Related(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	if s.relatedFn != nil {
		return s.relatedFn(ctx, category, excludeID, limit)
	}
	return nil, nil
}

func (s *stubProductRepo) Categories(ctx context.Context) ([]string, error) { return nil, nil }
func (s *stubProductRepo) Tags(ctx context.Context) ([]string, error)       { return nil, nil }

func newProductService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc
}

func TestBrowse_NormalizesPaging(t *testing.T) {
	repo := &stubProductRepo{
		browseFn: func(ctx context.Context, query browseQuery) ([]models.Product, int64, error) {
			assert.Equal(t, 1, query.Page.Page)
			assert.Equal(t, 9, query.Page.Limit)
			return []models.Product{{Slug: "classic-chair"}}, 10, nil
		},
	}
	svc := newProductService(t, repo)

	result, err := svc.Browse(context.Background(), BrowseInput{Sort: enums.ProductSortBestSelling})
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.Total)
	assert.Equal(t, 2, result.TotalPages)
}

func TestBrowse_InvalidSort(t *testing.T) {
	svc := newProductService(t, &stubProductRepo{})
	_, err := svc.Browse(context.Background(), BrowseInput{Sort: "trending"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGetBySlug_HidesUnpublished(t *testing.T) {
	repo := &stubProductRepo{
		findBySlugFn: func(ctx context.Context, slug string) (*models.Product, error) {
			return &models.Product{Slug: slug, IsPublished: false}, nil
		},
	}
	svc := newProductService(t, repo)

	_, err := svc.GetBySlug(context.Background(), "classic-chair")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestGetBySlug_NotFound(t *testing.T) {
	svc := newProductService(t, &stubProductRepo{})
	_, err := svc.GetBySlug(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestRelated_ExcludesSourceProduct(t *testing.T) {
	productID := uuid.New()
	repo := &stubProductRepo{
		findBySlugFn: func(ctx context.Context, slug string) (*models.Product, error) {
			return &models.Product{ID: productID, Slug: slug, Category: "Furniture", IsPublished: true}, nil
		},
		relatedFn: func(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error) {
			assert.Equal(t, "Furniture", category)
			assert.Equal(t, productID, excludeID)
			assert.Equal(t, relatedProductsLimit, limit)
			return []models.Product{{Slug: "other-chair"}}, nil
		},
	}
	svc := newProductService(t, repo)

	related, err := svc.Related(context.Background(), "classic-chair")
	require.NoError(t, err)
	require.Len(t, related, 1)
}

func TestCreate_SlugConflict(t *testing.T) {
	repo := &stubProductRepo{
		createFn: func(ctx context.Context, product *models.Product) (*models.Product, error) {
			return nil, &pgconn.PgError{Code: "23505"}
		},
	}
	svc := newProductService(t, repo)

	_, err := svc.Create(context.Background(), CreateProductInput{
		Name:  "Classic Chair",
		Slug:  "classic-chair",
		Price: decimal.RequireFromString("10.00"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestCreate_RejectsBadSlug(t *testing.T) {
	svc := newProductService(t, &stubProductRepo{})
	for _, slug := range []string{"", "Classic Chair", "UPPER"} {
		_, err := svc.Create(context.Background(), CreateProductInput{Name: "x", Slug: slug})
		require.Error(t, err, "slug %q", slug)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	productID := uuid.New()
	repo := &stubProductRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
			return &models.Product{
				ID:    productID,
				Name:  "Classic Chair",
				Slug:  "classic-chair",
				Price: decimal.RequireFromString("10.00"),
			}, nil
		},
	}
	svc := newProductService(t, repo)

	newPrice := decimal.RequireFromString("12.50")
	published := true
	updated, err := svc.Update(context.Background(), productID, UpdateProductInput{
		Price:       &newPrice,
		IsPublished: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, "12.50", updated.Price.StringFixed(2))
	assert.True(t, updated.IsPublished)
	assert.Equal(t, "classic-chair", updated.Slug, "untouched fields survive")
}

func TestDelete_NotFoundWhenNoRows(t *testing.T) {
	svc := newProductService(t, &stubProductRepo{})
	err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
