package controllers

import (
	"net/http"

	"github.com/shopora/storefront-backend/api/responses"
	"github.com/shopora/storefront-backend/api/validators"
	"github.com/shopora/storefront-backend/internal/cart"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/logger"
)

// QuoteCart prices the submitted cart without persisting anything.
func QuoteCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var req cart.QuoteInput
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
