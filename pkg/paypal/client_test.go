package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopora/storefront-backend/pkg/config"
	"github.com/shopora/storefront-backend/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.PayPalConfig{
		ClientID:  "client-id",
		Secret:    "app-secret",
		APIURL:    server.URL,
		WebhookID: "wh-1",
		Timeout:   5 * time.Second,
	}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return client
}

func tokenHandler(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "app-secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123"})
	})
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})

	_, err := NewClient(context.Background(), config.PayPalConfig{Secret: "s"}, logg)
	require.ErrorIs(t, err, errClientIDRequired)

	_, err = NewClient(context.Background(), config.PayPalConfig{ClientID: "c"}, logg)
	require.ErrorIs(t, err, errSecretRequired)
}

func TestCreateOrder(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(t, mux)
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "CAPTURE", payload["intent"])

		units := payload["purchase_units"].([]any)
		unit := units[0].(map[string]any)
		amount := unit["amount"].(map[string]any)
		assert.Equal(t, "41.40", amount["value"])
		assert.Equal(t, "order-1", unit["custom_id"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "PP-1", "status": "CREATED"})
	})

	client := testClient(t, mux)
	order, err := client.CreateOrder(context.Background(), "order-1", decimal.RequireFromString("41.40"), "USD")
	require.NoError(t, err)
	assert.Equal(t, "PP-1", order.ID)
	assert.Equal(t, "CREATED", order.Status)
}

func TestCaptureOrder_Completed(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(t, mux)
	mux.HandleFunc("/v2/checkout/orders/PP-1/capture", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "PP-1",
			"status": StatusCompleted,
			"payer":  map[string]string{"email_address": "buyer@example.com"},
			"purchase_units": []map[string]any{
				{"payments": map[string]any{"captures": []map[string]any{
					{"amount": map[string]string{"value": "41.40"}},
				}}},
			},
		})
	})

	client := testClient(t, mux)
	capture, err := client.CaptureOrder(context.Background(), "PP-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, capture.Status)
	assert.Equal(t, "buyer@example.com", capture.EmailAddress)
	assert.Equal(t, "41.40", capture.AmountValue)
}

func TestVerifyWebhook(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(t, mux)
	mux.HandleFunc("/v1/notification/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "wh-1", payload["webhook_id"])
		assert.Equal(t, "tid-1", payload["transmission_id"])
		_ = json.NewEncoder(w).Encode(map[string]string{"verification_status": "SUCCESS"})
	})

	client := testClient(t, mux)
	ok, err := client.VerifyWebhook(context.Background(), WebhookHeaders{
		TransmissionID:   "tid-1",
		TransmissionTime: "2026-01-02T03:04:05Z",
		TransmissionSig:  "sig",
		CertURL:          "https://api.paypal.com/cert",
		AuthAlgo:         "SHA256withRSA",
	}, json.RawMessage(`{"id":"WH-1"}`))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCaptureOrder_APIError(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(t, mux)
	mux.HandleFunc("/v2/checkout/orders/PP-2/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ORDER_NOT_APPROVED"})
	})

	client := testClient(t, mux)
	_, err := client.CaptureOrder(context.Background(), "PP-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORDER_NOT_APPROVED")
}
