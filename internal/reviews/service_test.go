package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

type stubReviewRepo struct {
	existing         *models.Review
	created          *models.Review
	saved            *models.Review
	aggregateAvg     decimal.Decimal
	aggregateCount   int64
	aggregatesSet    bool
	hasPaidPurchase  bool
	listFn           func(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]models.Review, int64, error)
	lastAggregateArg uuid.UUID
}

func (s *stubReviewRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReviewRepo) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Review, error) {
	if s.existing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.existing, nil
}

func (s *stubReviewRepo) Create(ctx context.Context, review *models.Review) error {
	s.created = review
	return nil
}

func (s *stubReviewRepo) Save(ctx context.Context, review *models.Review) error {
	s.saved = review
	return nil
}

func (s *stubReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]models.Review, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, productID, page)
	}
	return nil, 0, nil
}

func (s *stubReviewRepo) Aggregate(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int64, error) {
	s.lastAggregateArg = productID
	return s.aggregateAvg, s.aggregateCount, nil
}

func (s *stubReviewRepo) UpdateProductAggregates(ctx context.Context, productID uuid.UUID, avg decimal.Decimal, count int64) error {
	s.aggregatesSet = true
	return nil
}

func (s *stubReviewRepo) HasPaidPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.hasPaidPurchase, nil
}

type stubReviewTx struct{}

func (stubReviewTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubReviewCatalog struct {
	product *models.Product
}

func (s *stubReviewCatalog) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if s.product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.product, nil
}

func newReviewService(t *testing.T, repo Repository, catalog Catalog) Service {
	t.Helper()
	svc, err := NewService(repo, stubReviewTx{}, catalog)
	require.NoError(t, err)
	return svc
}

func TestCreateReview_NewReviewRecomputesAggregates(t *testing.T) {
	productID := uuid.New()
	repo := &stubReviewRepo{
		aggregateAvg:    decimal.RequireFromString("4.50"),
		aggregateCount:  2,
		hasPaidPurchase: true,
	}
	catalog := &stubReviewCatalog{product: &models.Product{ID: productID, IsPublished: true}}
	svc := newReviewService(t, repo, catalog)

	review, err := svc.Create(context.Background(), uuid.New(), "classic-chair", CreateInput{
		Rating: 5, Title: "Great chair", Comment: "Solid build.",
	})
	require.NoError(t, err)

	require.NotNil(t, repo.created)
	assert.True(t, review.IsVerifiedPurchase)
	assert.True(t, repo.aggregatesSet)
	assert.Equal(t, productID, repo.lastAggregateArg)
}

func TestCreateReview_SecondSubmissionReplaces(t *testing.T) {
	productID := uuid.New()
	userID := uuid.New()
	repo := &stubReviewRepo{
		existing: &models.Review{UserID: userID, ProductID: productID, Rating: 2, Title: "Meh"},
	}
	catalog := &stubReviewCatalog{product: &models.Product{ID: productID, IsPublished: true}}
	svc := newReviewService(t, repo, catalog)

	review, err := svc.Create(context.Background(), userID, "classic-chair", CreateInput{
		Rating: 4, Title: "Better than expected",
	})
	require.NoError(t, err)

	assert.Nil(t, repo.created)
	require.NotNil(t, repo.saved)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, "Better than expected", review.Title)
	assert.True(t, repo.aggregatesSet)
}

func TestCreateReview_RatingOutOfRange(t *testing.T) {
	svc := newReviewService(t, &stubReviewRepo{}, &stubReviewCatalog{})
	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), uuid.New(), "classic-chair", CreateInput{Rating: rating, Title: "t"})
		require.Error(t, err, "rating %d", rating)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	}
}

func TestCreateReview_UnknownProduct(t *testing.T) {
	svc := newReviewService(t, &stubReviewRepo{}, &stubReviewCatalog{})
	_, err := svc.Create(context.Background(), uuid.New(), "missing", CreateInput{Rating: 3, Title: "t"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListReviews_Paginates(t *testing.T) {
	productID := uuid.New()
	repo := &stubReviewRepo{
		listFn: func(ctx context.Context, pid uuid.UUID, page pagination.Params) ([]models.Review, int64, error) {
			assert.Equal(t, productID, pid)
			assert.Equal(t, 9, page.Limit)
			return []models.Review{{Rating: 5}}, 1, nil
		},
	}
	catalog := &stubReviewCatalog{product: &models.Product{ID: productID, IsPublished: true}}
	svc := newReviewService(t, repo, catalog)

	result, err := svc.List(context.Background(), "classic-chair", 1, 0)
	require.NoError(t, err)
	require.Len(t, result.Reviews, 1)
	assert.Equal(t, int64(1), result.Total)
}
