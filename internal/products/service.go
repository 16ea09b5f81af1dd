package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db"
	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

const relatedProductsLimit = 4

// Service exposes catalog browse and admin management operations.
type Service interface {
	Browse(ctx context.Context, input BrowseInput) (*BrowseResult, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Related(ctx context.Context, slug string) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	AdminList(ctx context.Context, page, limit int) (*BrowseResult, error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Browse(ctx context.Context, input BrowseInput) (*BrowseResult, error) {
	if input.Sort != "" && !input.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
	}

	page := pagination.Params{
		Page:  pagination.NormalizePage(input.Page),
		Limit: pagination.NormalizeLimit(input.Limit),
	}
	products, total, err := s.repo.Browse(ctx, browseQuery{BrowseInput: input, Page: page})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "browse products")
	}
	return &BrowseResult{
		Products:   products,
		Total:      total,
		Page:       page.Page,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}

	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) Related(ctx context.Context, slug string) ([]models.Product, error) {
	product, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	related, err := s.repo.Related(ctx, product.Category, product.ID, relatedProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load related products")
	}
	return related, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) Tags(ctx context.Context) ([]string, error) {
	tags, err := s.repo.Tags(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tags")
	}
	return tags, nil
}

func (s *service) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return s.repo.FindByIDs(ctx, ids)
}

func (s *service) AdminList(ctx context.Context, page, limit int) (*BrowseResult, error) {
	params := pagination.Params{Page: pagination.NormalizePage(page), Limit: pagination.NormalizeLimit(limit)}
	products, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return &BrowseResult{
		Products:   products,
		Total:      total,
		Page:       params.Page,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateSlug(input.Slug); err != nil {
		return nil, err
	}
	if input.Price.IsNegative() || input.ListPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	if input.CountInStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	product := &models.Product{
		Name:         input.Name,
		Slug:         input.Slug,
		Category:     input.Category,
		Brand:        input.Brand,
		Description:  input.Description,
		Images:       input.Images,
		Tags:         input.Tags,
		Price:        input.Price,
		ListPrice:    input.ListPrice,
		CountInStock: input.CountInStock,
		IsPublished:  input.IsPublished,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Slug != nil {
		if err := validateSlug(*input.Slug); err != nil {
			return nil, err
		}
		product.Slug = *input.Slug
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Brand != nil {
		product.Brand = *input.Brand
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Images != nil {
		product.Images = *input.Images
	}
	if input.Tags != nil {
		product.Tags = *input.Tags
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
		}
		product.Price = *input.Price
	}
	if input.ListPrice != nil {
		if input.ListPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
		}
		product.ListPrice = *input.ListPrice
	}
	if input.CountInStock != nil {
		if *input.CountInStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		product.CountInStock = *input.CountInStock
	}
	if input.IsPublished != nil {
		product.IsPublished = *input.IsPublished
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return saved, nil
}

func (s *service) Delete(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	rows, err := s.repo.Delete(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func validateSlug(slug string) error {
	if strings.TrimSpace(slug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	if strings.ContainsAny(slug, " /") || slug != strings.ToLower(slug) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase without spaces")
	}
	return nil
}
