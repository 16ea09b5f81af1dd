package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/api/responses"
	"github.com/shopora/storefront-backend/api/validators"
	product "github.com/shopora/storefront-backend/internal/products"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/logger"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

type createProductRequest struct {
	Name         string   `json:"name" validate:"required"`
	Slug         string   `json:"slug" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	Brand        string   `json:"brand" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Images       []string `json:"images"`
	Tags         []string `json:"tags"`
	Price        string   `json:"price" validate:"required"`
	ListPrice    string   `json:"list_price" validate:"required"`
	CountInStock int      `json:"count_in_stock" validate:"gte=0"`
	IsPublished  bool     `json:"is_published"`
}

type updateProductRequest struct {
	Name         *string   `json:"name,omitempty"`
	Slug         *string   `json:"slug,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Brand        *string   `json:"brand,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Images       *[]string `json:"images,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	Price        *string   `json:"price,omitempty"`
	ListPrice    *string   `json:"list_price,omitempty"`
	CountInStock *int      `json:"count_in_stock,omitempty"`
	IsPublished  *bool     `json:"is_published,omitempty"`
}

// BrowseProducts serves the public catalog with search, filters, and sorting.
func BrowseProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := product.BrowseInput{
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Tag:      strings.TrimSpace(r.URL.Query().Get("tag")),
			Sort:     enums.ProductSort(strings.TrimSpace(r.URL.Query().Get("sort"))),
			Page:     page,
			Limit:    limit,
		}

		for key, dest := range map[string]**decimal.Decimal{
			"priceMin":  &input.PriceMin,
			"priceMax":  &input.PriceMax,
			"ratingMin": &input.RatingMin,
		} {
			value, err := parseQueryDecimal(r, key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			*dest = value
		}

		result, err := svc.Browse(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetProduct returns one published product by slug.
func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		slug, err := slugParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// RelatedProducts returns listings from the same category as the given slug.
func RelatedProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		slug, err := slugParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Related(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ProductCategories lists the distinct categories of published products.
func ProductCategories(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// ProductTags lists the distinct tags of published products.
func ProductTags(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		tags, err := svc.Tags(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tags)
	}
}

// AdminListProducts returns the back-office product page including unpublished listings.
func AdminListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		page, limit, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminList(r.Context(), page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CreateProduct creates a listing from the back office.
func CreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parseDecimalField(req.Price, "price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listPrice, err := parseDecimalField(req.ListPrice, "list_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), product.CreateProductInput{
			Name:         req.Name,
			Slug:         req.Slug,
			Category:     req.Category,
			Brand:        req.Brand,
			Description:  req.Description,
			Images:       req.Images,
			Tags:         req.Tags,
			Price:        price,
			ListPrice:    listPrice,
			CountInStock: req.CountInStock,
			IsPublished:  req.IsPublished,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateProduct applies a partial update to a listing.
func UpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := product.UpdateProductInput{
			Name:         req.Name,
			Slug:         req.Slug,
			Category:     req.Category,
			Brand:        req.Brand,
			Description:  req.Description,
			Images:       req.Images,
			Tags:         req.Tags,
			CountInStock: req.CountInStock,
			IsPublished:  req.IsPublished,
		}
		if req.Price != nil {
			price, err := parseDecimalField(*req.Price, "price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Price = &price
		}
		if req.ListPrice != nil {
			listPrice, err := parseDecimalField(*req.ListPrice, "list_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.ListPrice = &listPrice
		}

		updated, err := svc.Update(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DeleteProduct removes a listing.
func DeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return 0, 0, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func parseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a decimal").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func parseDecimalField(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a decimal")
	}
	return value, nil
}
