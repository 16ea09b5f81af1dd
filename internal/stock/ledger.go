package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
)

// Ledger applies stock movements inside a caller-owned transaction.
type Ledger interface {
	DecrementForOrder(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
}

type ledger struct{}

// NewLedger returns the default products-table ledger.
func NewLedger() Ledger {
	return ledger{}
}

// DecrementForOrder debits count_in_stock and credits num_sales for every
// line item. A single guarded UPDATE per product serializes concurrent paid
// transitions on the product row. A missing product fails the whole call so
// the surrounding transaction rolls back.
func (ledger) DecrementForOrder(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order item quantity must be positive")
		}
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}
	for _, item := range items {
		if err := decrement(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET count_in_stock = count_in_stock - ?,
			num_sales = num_sales + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer exists")
	}
	return nil
}
