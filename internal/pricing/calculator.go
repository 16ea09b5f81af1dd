package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
)

// Item is one cart line as priced by the catalog, not by the client.
type Item struct {
	Price    decimal.Decimal
	Quantity int
}

// Input carries everything a quote computation needs. Compute does no I/O;
// callers load the delivery options and tax rate up front.
type Input struct {
	Items             []Item
	DeliveryOptions   []models.DeliveryOption
	DeliveryDateIndex *int
	HasAddress        bool
	TaxRate           decimal.Decimal
	Now               time.Time
}

// Quote is the authoritative price breakdown for a cart. ShippingPrice and
// TaxPrice stay nil until a shipping address is known.
type Quote struct {
	ItemsPrice           decimal.Decimal
	ShippingPrice        *decimal.Decimal
	TaxPrice             *decimal.Decimal
	TotalPrice           decimal.Decimal
	DeliveryOption       models.DeliveryOption
	DeliveryOptionIndex  int
	ExpectedDeliveryDate time.Time
}

// Compute re-prices a cart against the current delivery configuration.
// The subtotal is rounded half-up to two decimals exactly once; shipping and
// tax are derived from that rounded subtotal. An empty item list prices to a
// zero subtotal; rejecting empty carts is the callers' business.
func Compute(in Input) (*Quote, error) {
	if len(in.DeliveryOptions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no delivery options configured")
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
		}
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	itemsPrice := round2(subtotal)

	// An unset index falls through to the last configured option.
	index := len(in.DeliveryOptions) - 1
	if in.DeliveryDateIndex != nil {
		index = *in.DeliveryDateIndex
	}
	if index < 0 || index >= len(in.DeliveryOptions) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery option index out of range")
	}
	option := in.DeliveryOptions[index]

	quote := &Quote{
		ItemsPrice:           itemsPrice,
		TotalPrice:           itemsPrice,
		DeliveryOption:       option,
		DeliveryOptionIndex:  index,
		ExpectedDeliveryDate: in.Now.AddDate(0, 0, option.DaysToDeliver),
	}
	if !in.HasAddress {
		return quote, nil
	}

	shipping := option.ShippingPrice
	if option.FreeShippingMinPrice.IsPositive() && itemsPrice.GreaterThanOrEqual(option.FreeShippingMinPrice) {
		shipping = decimal.Zero
	}
	tax := round2(itemsPrice.Mul(in.TaxRate))

	quote.ShippingPrice = &shipping
	quote.TaxPrice = &tax
	quote.TotalPrice = round2(itemsPrice.Add(shipping).Add(tax))
	return quote, nil
}

// round2 rounds half away from zero to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
