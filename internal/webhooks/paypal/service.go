package paypalwebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/types"
)

// EventTypeCaptureCompleted settles the referenced order.
const EventTypeCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"

// Event is the verified webhook envelope PayPal delivers.
type Event struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

type orderSettler interface {
	MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error)
}

type Service struct {
	orders orderSettler
}

func NewService(orders orderSettler) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order settler required")
	}
	return &Service{orders: orders}, nil
}

type captureResource struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	CustomID string `json:"custom_id"`
	Amount   struct {
		Value string `json:"value"`
	} `json:"amount"`
}

// HandleEvent reconciles a webhook delivery against the order ledger.
// The capture endpoint usually settles first; an already-paid order is
// treated as processed, not as a failure.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil || len(event.Resource) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "paypal event resource required")
	}

	switch event.EventType {
	case EventTypeCaptureCompleted:
		var resource captureResource
		if err := json.Unmarshal(event.Resource, &resource); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode capture resource")
		}
		return s.settleCapture(ctx, &resource)
	default:
		return nil
	}
}

func (s *Service) settleCapture(ctx context.Context, resource *captureResource) error {
	if resource.CustomID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "capture resource missing order reference")
	}
	orderID, err := uuid.Parse(resource.CustomID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse order reference")
	}

	result := &types.PaymentResult{
		ID:        resource.ID,
		Status:    resource.Status,
		PricePaid: resource.Amount.Value,
	}
	if _, err := s.orders.MarkPaid(ctx, orderID, result); err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeConflict) {
			return nil
		}
		return err
	}
	return nil
}
