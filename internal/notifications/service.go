package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

// Service defines notification list/read operations plus the lifecycle
// dispatches fired after an order transition commits.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	SendOrderReceipt(ctx context.Context, order *models.Order) error
	SendReviewRequest(ctx context.Context, order *models.Order) error
}

type service struct {
	repo Repository
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Page       int
	Limit      int
	UnreadOnly bool
}

// ListResult wraps returned notifications with page bookkeeping.
type ListResult struct {
	Items      []models.Notification `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"totalPages"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	page := pagination.Params{
		Page:  pagination.NormalizePage(params.Page),
		Limit: pagination.NormalizeLimit(params.Limit),
	}
	rows, total, err := s.repo.List(ctx, listNotificationsParams{
		UserID:     params.UserID,
		Page:       page,
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	return &ListResult{
		Items:      rows,
		Total:      total,
		Page:       page.Page,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// SendOrderReceipt records the purchase receipt shown to the shopper after
// an order settles. Callers run this after commit and only log failures.
func (s *service) SendOrderReceipt(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	link := fmt.Sprintf("/account/orders/%s", order.ID)
	return s.repo.Create(ctx, &models.Notification{
		UserID:  order.UserID,
		Type:    enums.NotificationOrderReceipt,
		Title:   "Thanks for your purchase",
		Message: fmt.Sprintf("We received your payment of %s for order %s.", order.TotalPrice.StringFixed(2), order.ID),
		Link:    &link,
	})
}

// SendReviewRequest asks the shopper to review each purchased product once
// the order is delivered. One notification per line item; failures are
// aggregated so a single bad row does not suppress the rest.
func (s *service) SendReviewRequest(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	var errs error
	for _, item := range order.Items {
		link := fmt.Sprintf("/products/%s", item.Slug)
		err := s.repo.Create(ctx, &models.Notification{
			UserID:  order.UserID,
			Type:    enums.NotificationReviewRequest,
			Title:   "How was your order?",
			Message: fmt.Sprintf("Tell other shoppers what you think of %s.", item.Name),
			Link:    &link,
		})
		errs = multierr.Append(errs, err)
	}
	return errs
}
