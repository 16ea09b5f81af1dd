package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Catalog resolves review targets; unpublished products stay invisible.
type Catalog interface {
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
}

// CreateInput is the shopper-submitted review payload.
type CreateInput struct {
	Rating  int
	Title   string
	Comment string
}

// ListResult wraps a page of reviews with page bookkeeping.
type ListResult struct {
	Reviews    []models.Review `json:"reviews"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

// Service defines review submission and listing.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, slug string, input CreateInput) (*models.Review, error)
	List(ctx context.Context, slug string, page, limit int) (*ListResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog Catalog
}

// NewService builds the reviews service.
func NewService(repo Repository, tx txRunner, catalog Catalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

// Create stores or replaces the caller's review and recomputes the product
// rating aggregates in the same transaction, so the catalog never shows a
// stale average.
func (s *service) Create(ctx context.Context, userID uuid.UUID, slug string, input CreateInput) (*models.Review, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	product, err := s.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	verified, err := s.repo.HasPaidPurchase(ctx, userID, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
	}

	var review *models.Review
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByUserAndProduct(ctx, userID, product.ID)
		switch {
		case err == gorm.ErrRecordNotFound:
			review = &models.Review{
				UserID:             userID,
				ProductID:          product.ID,
				Rating:             input.Rating,
				Title:              input.Title,
				Comment:            input.Comment,
				IsVerifiedPurchase: verified,
			}
			if err := repo.Create(ctx, review); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		default:
			existing.Rating = input.Rating
			existing.Title = input.Title
			existing.Comment = input.Comment
			existing.IsVerifiedPurchase = verified
			if err := repo.Save(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
			}
			review = existing
		}

		avg, count, err := repo.Aggregate(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ratings")
		}
		if err := repo.UpdateProductAggregates(ctx, product.ID, avg, count); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) List(ctx context.Context, slug string, page, limit int) (*ListResult, error) {
	product, err := s.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	params := pagination.Params{Page: pagination.NormalizePage(page), Limit: pagination.NormalizeLimit(limit)}
	reviews, total, err := s.repo.ListByProduct(ctx, product.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return &ListResult{
		Reviews:    reviews,
		Total:      total,
		Page:       params.Page,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}
