package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
)

type fakeRepository struct {
	createFn      func(ctx context.Context, notification *models.Notification) error
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	markAllReadFn func(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, notification)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, userID, notificationID, now)
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, userID, now)
	}
	return 0, nil
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo)
	return svc
}

func TestService_ListNotifications(t *testing.T) {
	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error) {
			if params.Page.Limit != 9 {
				t.Fatalf("unexpected limit %d", params.Page.Limit)
			}
			if params.Page.Page != 2 {
				t.Fatalf("unexpected page %d", params.Page.Page)
			}
			return []models.Notification{{ID: uuid.New()}}, 19, nil
		},
	}

	svc := newServiceWithRepo(repo)
	result, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Page: 2})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(result.Items))
	}
	if result.Total != 19 {
		t.Fatalf("expected total 19, got %d", result.Total)
	}
	if result.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", result.TotalPages)
	}
}

func TestService_ListRequiresUser(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	_, err := svc.List(context.Background(), ListParams{})
	if err == nil {
		t.Fatal("expected error for missing user")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_MarkRead(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{Found: true, Updated: true}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("unexpected mark read error: %v", err)
	}
}

func TestService_MarkReadNotFound(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{Found: false}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err == nil {
		t.Fatal("expected not found error")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_MarkAllRead(t *testing.T) {
	repo := &fakeRepository{
		markAllReadFn: func(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
			return 3, nil
		},
	}
	svc := newServiceWithRepo(repo)
	count, err := svc.MarkAllRead(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected mark all read error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 updated rows, got %d", count)
	}
}

func TestService_SendOrderReceipt(t *testing.T) {
	var created *models.Notification
	repo := &fakeRepository{
		createFn: func(ctx context.Context, notification *models.Notification) error {
			created = notification
			return nil
		},
	}
	svc := newServiceWithRepo(repo)

	order := &models.Order{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		TotalPrice: decimal.RequireFromString("41.40"),
	}
	if err := svc.SendOrderReceipt(context.Background(), order); err != nil {
		t.Fatalf("unexpected receipt error: %v", err)
	}
	if created == nil {
		t.Fatal("expected a notification to be created")
	}
	if created.Type != enums.NotificationOrderReceipt {
		t.Fatalf("unexpected type %s", created.Type)
	}
	if created.UserID != order.UserID {
		t.Fatal("receipt must target the order owner")
	}
	if !strings.Contains(created.Message, "41.40") {
		t.Fatalf("receipt message missing total: %q", created.Message)
	}
}

func TestService_SendReviewRequestAggregatesFailures(t *testing.T) {
	calls := 0
	repo := &fakeRepository{
		createFn: func(ctx context.Context, notification *models.Notification) error {
			calls++
			if calls == 1 {
				return errors.New("insert failed")
			}
			return nil
		},
	}
	svc := newServiceWithRepo(repo)

	order := &models.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Items: []models.OrderItem{
			{Name: "Chair", Slug: "chair"},
			{Name: "Lamp", Slug: "lamp"},
		},
	}
	err := svc.SendReviewRequest(context.Background(), order)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if calls != 2 {
		t.Fatalf("expected both items attempted, got %d calls", calls)
	}
	if len(multierr.Errors(err)) != 1 {
		t.Fatalf("expected 1 underlying failure, got %d", len(multierr.Errors(err)))
	}
}
