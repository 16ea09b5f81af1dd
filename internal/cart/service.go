package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/internal/pricing"
	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
)

// Catalog resolves the products referenced by a cart.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// QuoteConfig supplies the delivery and tax configuration used to price a cart.
type QuoteConfig interface {
	DeliveryOptions(ctx context.Context) ([]models.DeliveryOption, error)
	TaxRate(ctx context.Context) (decimal.Decimal, error)
}

// QuoteItemInput is one cart line as submitted by the client.
type QuoteItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// QuoteInput carries everything needed to price a cart server side.
type QuoteInput struct {
	Items             []QuoteItemInput `json:"items" validate:"required,min=1,dive"`
	HasAddress        bool             `json:"has_address"`
	DeliveryDateIndex *int             `json:"delivery_date_index,omitempty"`
}

// QuoteLine echoes one priced cart line back to the client.
type QuoteLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Quote is the priced cart returned to the client.
type Quote struct {
	Items   []QuoteLine   `json:"items"`
	Pricing pricing.Quote `json:"pricing"`
}

// Service prices carts without persisting them.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
}

type service struct {
	catalog Catalog
	config  QuoteConfig
	now     func() time.Time
}

// NewService builds the cart quoting service.
func NewService(catalog Catalog, config QuoteConfig) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if config == nil {
		return nil, fmt.Errorf("quote config required")
	}
	return &service{
		catalog: catalog,
		config:  config,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Merge duplicate product lines before pricing.
	quantities := make(map[uuid.UUID]int, len(input.Items))
	order := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, seen := quantities[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	products, err := s.catalog.FindByIDs(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]QuoteLine, 0, len(order))
	priceItems := make([]pricing.Item, 0, len(order))
	for _, id := range order {
		product, ok := byID[id]
		if !ok || !product.IsPublished {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available")
		}
		qty := quantities[id]
		if qty > product.CountInStock {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("insufficient stock for %s", product.Name))
		}

		line := QuoteLine{
			ProductID: product.ID,
			Name:      product.Name,
			Slug:      product.Slug,
			Price:     product.Price,
			Quantity:  qty,
		}
		if len(product.Images) > 0 {
			line.Image = product.Images[0]
		}
		lines = append(lines, line)
		priceItems = append(priceItems, pricing.Item{Price: product.Price, Quantity: qty})
	}

	options, err := s.config.DeliveryOptions(ctx)
	if err != nil {
		return nil, err
	}
	taxRate, err := s.config.TaxRate(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Compute(pricing.Input{
		Items:             priceItems,
		DeliveryOptions:   options,
		DeliveryDateIndex: input.DeliveryDateIndex,
		HasAddress:        input.HasAddress,
		TaxRate:           taxRate,
		Now:               s.now(),
	})
	if err != nil {
		return nil, err
	}

	return &Quote{Items: lines, Pricing: *quote}, nil
}
