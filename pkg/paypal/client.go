package paypal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/pkg/config"
	"github.com/shopora/storefront-backend/pkg/logger"
)

// StatusCompleted is the only capture status that settles an order.
const StatusCompleted = "COMPLETED"

var (
	errClientIDRequired = errors.New("paypal client id is required")
	errSecretRequired   = errors.New("paypal app secret is required")
	errLoggerRequired   = errors.New("paypal logger is required")
)

// Client wraps the PayPal Orders REST API with centralized auth and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	webhookID  string
	logger     *logger.Logger
}

// Order is the gateway-side order created ahead of shopper approval.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Capture is the settlement outcome for an approved gateway order.
type Capture struct {
	ID           string
	Status       string
	EmailAddress string
	AmountValue  string
}

// NewClient initializes the PayPal wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}

	baseURL := strings.TrimRight(cfg.APIURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
		webhookID:  strings.TrimSpace(cfg.WebhookID),
		logger:     logg,
	}

	logg.Info(ctx, "paypal client initialized")
	return c, nil
}

// WebhookID returns the configured webhook identifier.
func (c *Client) WebhookID() string {
	if c == nil {
		return ""
	}
	return c.webhookID
}

// CreateOrder opens a CAPTURE-intent order for the given total. The
// storefront order id travels as custom_id so webhook events can be
// reconciled back to the order.
func (c *Client) CreateOrder(ctx context.Context, referenceID string, total decimal.Decimal, currency string) (*Order, error) {
	if currency == "" {
		currency = "USD"
	}
	unit := map[string]any{
		"amount": map[string]string{
			"currency_code": currency,
			"value":         total.StringFixed(2),
		},
	}
	if strings.TrimSpace(referenceID) != "" {
		unit["custom_id"] = referenceID
	}
	payload := map[string]any{
		"intent":         "CAPTURE",
		"purchase_units": []map[string]any{unit},
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder captures an approved gateway order and returns the settlement result.
func (c *Client) CaptureOrder(ctx context.Context, paypalOrderID string) (*Capture, error) {
	if strings.TrimSpace(paypalOrderID) == "" {
		return nil, fmt.Errorf("paypal order id is required")
	}

	var body captureResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", paypalOrderID)
	if err := c.do(ctx, http.MethodPost, path, map[string]any{}, &body); err != nil {
		return nil, err
	}

	capture := &Capture{
		ID:           body.ID,
		Status:       body.Status,
		EmailAddress: body.Payer.EmailAddress,
	}
	if len(body.PurchaseUnits) > 0 && len(body.PurchaseUnits[0].Payments.Captures) > 0 {
		capture.AmountValue = body.PurchaseUnits[0].Payments.Captures[0].Amount.Value
	}
	return capture, nil
}

// WebhookHeaders carries the transmission headers PayPal signs each
// webhook delivery with.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

// VerifyWebhook asks PayPal to confirm a webhook delivery signature.
// Returns false when the signature check fails without a transport error.
func (c *Client) VerifyWebhook(ctx context.Context, headers WebhookHeaders, event json.RawMessage) (bool, error) {
	if c.webhookID == "" {
		return false, fmt.Errorf("paypal webhook id is not configured")
	}
	payload := map[string]any{
		"auth_algo":         headers.AuthAlgo,
		"cert_url":          headers.CertURL,
		"transmission_id":   headers.TransmissionID,
		"transmission_sig":  headers.TransmissionSig,
		"transmission_time": headers.TransmissionTime,
		"webhook_id":        c.webhookID,
		"webhook_event":     event,
	}

	var body struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notification/verify-webhook-signature", payload, &body); err != nil {
		return false, err
	}
	return body.VerificationStatus == "SUCCESS", nil
}

type captureResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				Amount struct {
					Value string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// accessToken exchanges the client credentials for a bearer token.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.secret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp.StatusCode, raw)
	}

	var token tokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("paypal token response missing access_token")
	}
	return token.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode paypal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build paypal request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read paypal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, raw)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}

func apiError(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return fmt.Errorf("paypal api status %d: %s", status, msg)
}
