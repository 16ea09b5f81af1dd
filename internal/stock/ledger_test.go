package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
)

func TestDecrementForOrder_RequiresTransaction(t *testing.T) {
	err := NewLedger().DecrementForOrder(context.Background(), nil, []models.OrderItem{{Quantity: 1}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestDecrementForOrder_RejectsNonPositiveQuantity(t *testing.T) {
	err := NewLedger().DecrementForOrder(context.Background(), nil, []models.OrderItem{{Quantity: 0}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
