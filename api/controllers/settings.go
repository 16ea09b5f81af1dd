package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/api/responses"
	"github.com/shopora/storefront-backend/api/validators"
	"github.com/shopora/storefront-backend/internal/settings"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/logger"
)

type deliveryOptionRequest struct {
	Name                 string `json:"name" validate:"required"`
	DaysToDeliver        int    `json:"days_to_deliver" validate:"required,gt=0"`
	ShippingPrice        string `json:"shipping_price" validate:"required"`
	FreeShippingMinPrice string `json:"free_shipping_min_price"`
}

type updateSettingsRequest struct {
	SiteName             *string                  `json:"site_name,omitempty"`
	TaxRate              *string                  `json:"tax_rate,omitempty"`
	PageSize             *int                     `json:"page_size,omitempty"`
	DefaultPaymentMethod *string                  `json:"default_payment_method,omitempty"`
	Currency             *string                  `json:"currency,omitempty"`
	DeliveryOptions      *[]deliveryOptionRequest `json:"delivery_options,omitempty"`
}

// GetSettings returns the storefront configuration snapshot.
func GetSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		snapshot, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// GetDeliveryOptions lists the delivery tiers shown at checkout.
func GetDeliveryOptions(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		options, err := svc.DeliveryOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, options)
	}
}

// AdminUpdateSettings applies a partial settings update from the back office.
func AdminUpdateSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var req updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := settings.UpdateInput{
			SiteName: req.SiteName,
			PageSize: req.PageSize,
			Currency: req.Currency,
		}
		if req.TaxRate != nil {
			rate, err := parseDecimalField(*req.TaxRate, "tax_rate")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.TaxRate = &rate
		}
		if req.DefaultPaymentMethod != nil {
			method := enums.PaymentMethod(*req.DefaultPaymentMethod)
			input.DefaultPaymentMethod = &method
		}
		if req.DeliveryOptions != nil {
			options := make([]settings.DeliveryOptionInput, 0, len(*req.DeliveryOptions))
			for _, option := range *req.DeliveryOptions {
				shipping, err := parseDecimalField(option.ShippingPrice, "shipping_price")
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				threshold := decimal.Zero
				if option.FreeShippingMinPrice != "" {
					threshold, err = parseDecimalField(option.FreeShippingMinPrice, "free_shipping_min_price")
					if err != nil {
						responses.WriteError(r.Context(), logg, w, err)
						return
					}
				}
				options = append(options, settings.DeliveryOptionInput{
					Name:                 option.Name,
					DaysToDeliver:        option.DaysToDeliver,
					ShippingPrice:        shipping,
					FreeShippingMinPrice: threshold,
				})
			}
			input.DeliveryOptions = &options
		}

		snapshot, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}
