package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/pagination"
	"github.com/shopora/storefront-backend/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.paginate(ctx, query, page)
}

func (r *repository) List(ctx context.Context, page pagination.Params) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	return r.paginate(ctx, query, page)
}

func (r *repository) paginate(ctx context.Context, query *gorm.DB, page pagination.Params) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkPaid flips is_paid only when the row is still unpaid. The predicate is
// what serializes concurrent settlements: of two racing transactions, exactly
// one sees RowsAffected == 1.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result *types.PaymentResult) (int64, error) {
	updates := map[string]any{
		"is_paid": true,
		"paid_at": paidAt,
	}
	if result != nil {
		updates["payment_result"] = result
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = false", id).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_delivered = false", id).
		Updates(map[string]any{
			"is_delivered": true,
			"delivered_at": deliveredAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) SummaryTotals(ctx context.Context) (*SummaryTotals, error) {
	var totals SummaryTotals
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS orders_count,
			COALESCE(SUM(total_price), 0) AS total_sales
		FROM orders
	`).Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&totals.UsersCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&totals.ProductsCount).Error; err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *repository) MonthlySales(ctx context.Context, months int) ([]MonthlySales, error) {
	if months <= 0 {
		months = 6
	}
	since := time.Now().UTC().AddDate(0, -months, 0)

	var rows []MonthlySales
	err := r.db.WithContext(ctx).Raw(`
		SELECT to_char(created_at, 'YYYY-MM') AS month,
			COALESCE(SUM(total_price), 0) AS total_sales
		FROM orders
		WHERE created_at >= ?
		GROUP BY 1
		ORDER BY 1 DESC
	`, since).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
