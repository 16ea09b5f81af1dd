package paypalwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/types"
)

type stubSettler struct {
	markPaid func(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error)
}

func (s *stubSettler) MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error) {
	if s.markPaid == nil {
		return nil, fmt.Errorf("unexpected MarkPaid call")
	}
	return s.markPaid(ctx, orderID, result)
}

func captureEvent(t *testing.T, customID string) *Event {
	t.Helper()
	resource, err := json.Marshal(map[string]any{
		"id":        "CAP-9",
		"status":    "COMPLETED",
		"custom_id": customID,
		"amount":    map[string]string{"value": "41.40"},
	})
	if err != nil {
		t.Fatalf("marshal resource: %v", err)
	}
	return &Event{ID: "WH-1", EventType: EventTypeCaptureCompleted, Resource: resource}
}

func TestHandleEvent_CaptureCompletedSettlesOrder(t *testing.T) {
	orderID := uuid.New()
	var settled *types.PaymentResult
	service, err := NewService(&stubSettler{
		markPaid: func(ctx context.Context, id uuid.UUID, result *types.PaymentResult) (*models.Order, error) {
			if id != orderID {
				t.Fatalf("expected order %s got %s", orderID, id)
			}
			settled = result
			return &models.Order{ID: id, IsPaid: true}, nil
		},
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	if err := service.HandleEvent(context.Background(), captureEvent(t, orderID.String())); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if settled == nil || settled.ID != "CAP-9" || settled.PricePaid != "41.40" {
		t.Fatalf("unexpected payment result: %+v", settled)
	}
}

func TestHandleEvent_AlreadyPaidIsNotAnError(t *testing.T) {
	service, err := NewService(&stubSettler{
		markPaid: func(ctx context.Context, id uuid.UUID, result *types.PaymentResult) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		},
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	if err := service.HandleEvent(context.Background(), captureEvent(t, uuid.NewString())); err != nil {
		t.Fatalf("expected replayed settlement to succeed: %v", err)
	}
}

func TestHandleEvent_MissingOrderReference(t *testing.T) {
	service, err := NewService(&stubSettler{})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	err = service.HandleEvent(context.Background(), captureEvent(t, ""))
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEvent_IgnoresUnrelatedEvents(t *testing.T) {
	service, err := NewService(&stubSettler{})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	event := &Event{ID: "WH-2", EventType: "CHECKOUT.ORDER.APPROVED", Resource: json.RawMessage(`{}`)}
	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected unrelated event to be ignored: %v", err)
	}
}
