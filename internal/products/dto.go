package product

import (
	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
)

// CreateProductInput holds the validated payload to create a listing.
type CreateProductInput struct {
	Name         string
	Slug         string
	Category     string
	Brand        string
	Description  string
	Images       []string
	Tags         []string
	Price        decimal.Decimal
	ListPrice    decimal.Decimal
	CountInStock int
	IsPublished  bool
}

// UpdateProductInput holds optional mutation values for a listing.
type UpdateProductInput struct {
	Name         *string
	Slug         *string
	Category     *string
	Brand        *string
	Description  *string
	Images       *[]string
	Tags         *[]string
	Price        *decimal.Decimal
	ListPrice    *decimal.Decimal
	CountInStock *int
	IsPublished  *bool
}

// BrowseInput captures the storefront search/filter/sort surface.
type BrowseInput struct {
	Query     string
	Category  string
	Tag       string
	PriceMin  *decimal.Decimal
	PriceMax  *decimal.Decimal
	RatingMin *decimal.Decimal
	Sort      enums.ProductSort
	Page      int
	Limit     int
}

// BrowseResult wraps a catalog page with page bookkeeping.
type BrowseResult struct {
	Products   []models.Product `json:"products"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}
