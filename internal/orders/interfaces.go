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

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, int64, error)
	List(ctx context.Context, page pagination.Params) ([]models.Order, int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result *types.PaymentResult) (int64, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (int64, error)
	SummaryTotals(ctx context.Context) (*SummaryTotals, error)
	MonthlySales(ctx context.Context, months int) ([]MonthlySales, error)
}
