package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/internal/orders"
	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/logger"
	"github.com/shopora/storefront-backend/pkg/metrics"
	"github.com/shopora/storefront-backend/pkg/paypal"
	"github.com/shopora/storefront-backend/pkg/types"
)

// Gateway is the PayPal surface the payments service drives.
type Gateway interface {
	CreateOrder(ctx context.Context, referenceID string, total decimal.Decimal, currency string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, paypalOrderID string) (*paypal.Capture, error)
}

// OrderAccess is the slice of the orders service needed to settle payments.
type OrderAccess interface {
	Get(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error)
}

// StoreConfig exposes the storefront currency used for gateway orders.
type StoreConfig interface {
	Currency(ctx context.Context) (string, error)
}

// CreateResult carries the gateway order identifier back to the client for approval.
type CreateResult struct {
	PayPalOrderID string `json:"paypal_order_id"`
	Status        string `json:"status"`
}

// CaptureResult reports the settled order after a successful capture.
type CaptureResult struct {
	Order  *models.Order        `json:"order"`
	Result *types.PaymentResult `json:"payment_result"`
}

// Service orchestrates the PayPal approve-then-capture flow for an order.
type Service interface {
	CreatePayPalOrder(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*CreateResult, error)
	CapturePayPalOrder(ctx context.Context, actor orders.Actor, orderID uuid.UUID, paypalOrderID string) (*CaptureResult, error)
}

type service struct {
	gateway Gateway
	orders  OrderAccess
	config  StoreConfig
	metrics *metrics.OrderMetrics
	logger  *logger.Logger
}

// NewService wires the payments orchestration service.
func NewService(gateway Gateway, orderAccess OrderAccess, storeConfig StoreConfig, orderMetrics *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if orderAccess == nil {
		return nil, fmt.Errorf("order access required")
	}
	if storeConfig == nil {
		return nil, fmt.Errorf("store config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		gateway: gateway,
		orders:  orderAccess,
		config:  storeConfig,
		metrics: orderMetrics,
		logger:  logg,
	}, nil
}

func (s *service) CreatePayPalOrder(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*CreateResult, error) {
	order, err := s.orders.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
	}

	currency, err := s.config.Currency(ctx)
	if err != nil {
		return nil, err
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, order.ID.String(), order.TotalPrice, currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create paypal order")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"order_id":        order.ID.String(),
		"paypal_order_id": gatewayOrder.ID,
	})
	s.logger.Info(logCtx, "paypal order created")
	return &CreateResult{PayPalOrderID: gatewayOrder.ID, Status: gatewayOrder.Status}, nil
}

func (s *service) CapturePayPalOrder(ctx context.Context, actor orders.Actor, orderID uuid.UUID, paypalOrderID string) (*CaptureResult, error) {
	if paypalOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paypal order id required")
	}

	order, err := s.orders.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
	}

	started := time.Now()
	capture, err := s.gateway.CaptureOrder(ctx, paypalOrderID)
	s.metrics.ObserveCapture(time.Since(started))
	if err != nil {
		s.metrics.IncCaptureFailure()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capture paypal order")
	}

	if capture.Status != paypal.StatusCompleted {
		s.metrics.IncCaptureFailure()
		logCtx := s.logger.WithFields(ctx, map[string]any{
			"order_id":        order.ID.String(),
			"paypal_order_id": paypalOrderID,
			"status":          capture.Status,
		})
		s.logger.Warn(logCtx, "paypal capture not completed")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment capture not completed")
	}

	result := &types.PaymentResult{
		ID:           capture.ID,
		Status:       capture.Status,
		EmailAddress: capture.EmailAddress,
		PricePaid:    capture.AmountValue,
	}

	settled, err := s.orders.MarkPaid(ctx, order.ID, result)
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"order_id":        order.ID.String(),
		"paypal_order_id": paypalOrderID,
	})
	s.logger.Info(logCtx, "paypal capture settled")
	return &CaptureResult{Order: settled, Result: result}, nil
}
