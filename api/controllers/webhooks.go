package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopora/storefront-backend/api/responses"
	paypalwebhook "github.com/shopora/storefront-backend/internal/webhooks/paypal"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/logger"
	"github.com/shopora/storefront-backend/pkg/paypal"
)

// WebhookVerifier confirms a delivery actually came from PayPal.
type WebhookVerifier interface {
	VerifyWebhook(ctx context.Context, headers paypal.WebhookHeaders, event json.RawMessage) (bool, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// PayPalWebhook verifies, dedupes, and applies PayPal event deliveries.
func PayPalWebhook(svc *paypalwebhook.Service, verifier WebhookVerifier, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook verifier unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		headers := paypal.WebhookHeaders{
			TransmissionID:   r.Header.Get("Paypal-Transmission-Id"),
			TransmissionTime: r.Header.Get("Paypal-Transmission-Time"),
			TransmissionSig:  r.Header.Get("Paypal-Transmission-Sig"),
			CertURL:          r.Header.Get("Paypal-Cert-Url"),
			AuthAlgo:         r.Header.Get("Paypal-Auth-Algo"),
		}
		if headers.TransmissionID == "" || headers.TransmissionSig == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paypal transmission headers missing"))
			return
		}

		verified, err := verifier.VerifyWebhook(ctx, headers, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify webhook signature"))
			return
		}
		if !verified {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature rejected"))
			return
		}

		var event paypalwebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook event"))
			return
		}
		if event.ID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id missing"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if deleteErr := guard.Delete(ctx, event.ID); deleteErr != nil && logg != nil {
				logg.Error(ctx, "release webhook idempotency mark", deleteErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
