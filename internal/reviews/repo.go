package reviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

// Repository exposes persistence helpers for product reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Review, error)
	Create(ctx context.Context, review *models.Review) error
	Save(ctx context.Context, review *models.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]models.Review, int64, error)
	Aggregate(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int64, error)
	UpdateProductAggregates(ctx context.Context, productID uuid.UUID, avg decimal.Decimal, count int64) error
	HasPaidPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reviews repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repositoryImpl) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repositoryImpl) Save(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *repositoryImpl) ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := query.
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *repositoryImpl) Aggregate(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int64, error) {
	var row struct {
		AvgRating  decimal.Decimal `gorm:"column:avg_rating"`
		NumReviews int64           `gorm:"column:num_reviews"`
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS avg_rating,
			COUNT(*) AS num_reviews
		FROM reviews
		WHERE product_id = ?
	`, productID).Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.AvgRating, row.NumReviews, nil
}

func (r *repositoryImpl) UpdateProductAggregates(ctx context.Context, productID uuid.UUID, avg decimal.Decimal, count int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"avg_rating":  avg,
			"num_reviews": count,
		}).Error
}

func (r *repositoryImpl) HasPaidPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.is_paid = TRUE AND order_items.product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
