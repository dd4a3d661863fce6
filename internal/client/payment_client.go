// Package client wraps the external payment provider's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/online-movie-store/internal/config"
)

// PaymentProvider is the server-side surface of the payment gateway:
// creating a payment intent for an order total and refunding a captured
// intent. Implementations must not retry on their own; callers decide.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, orderID uint64) (*PaymentIntent, error)
	RefundIntent(ctx context.Context, providerRef string) error
}

// PaymentIntent is the provider-side object representing an attempted
// charge. ClientSecret is handed to the frontend to complete the charge.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type paymentClientImpl struct {
	httpClient *http.Client
	baseAPIURL string
	secretKey  string
}

// NewPaymentClient builds a PaymentProvider from config.
func NewPaymentClient(cfg config.Payment) PaymentProvider {
	return &paymentClientImpl{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseAPIURL: cfg.APIURL,
		secretKey:  cfg.SecretKey,
	}
}

// CreateIntent registers a charge for the given amount with the provider.
// The order id travels in the intent metadata and comes back in webhook
// callbacks, which is how callbacks are correlated with orders.
func (c *paymentClientImpl) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, orderID uint64) (*PaymentIntent, error) {
	payload := map[string]interface{}{
		// Providers charge in minor units.
		"amount":   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency": currency,
		"metadata": map[string]string{
			"order_id": strconv.FormatUint(orderID, 10),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseAPIURL+"/v1/payment_intents", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create intent: provider returned %d: %s", resp.StatusCode, string(b))
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("create intent: empty intent id in response")
	}
	return &intent, nil
}

// RefundIntent asks the provider to refund a captured intent in full.
func (c *paymentClientImpl) RefundIntent(ctx context.Context, providerRef string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseAPIURL+"/v1/payment_intents/"+providerRef+"/refund", nil)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("refund intent: provider returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
