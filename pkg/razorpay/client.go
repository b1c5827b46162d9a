// Package razorpay wraps the Razorpay orders API and the callback signature
// check behind a small interface the payment service can mock.
package razorpay

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Order is the gateway-side order record. Amount is in the currency's
// smallest unit (paise for INR).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Client interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*Order, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

type razorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a gateway client. The timeout bounds every call so a slow
// gateway cannot hang a checkout.
func NewClient(keyID, keySecret string, timeout time.Duration) Client {
	return &razorpayClient{
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder opens a gateway order for the given amount. Amounts are decimal
// major units; the gateway wants the smallest unit, so 54.59 goes over the
// wire as 5459.
func (c *razorpayClient) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*Order, error) {
	receipt, err := newReceipt()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	order := &Order{}
	if err := json.Unmarshal(respBody, order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway order: %w", err)
	}

	return order, nil
}

// VerifySignature checks the gateway callback signature. See signature.go.
func (c *razorpayClient) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return VerifySignature(gatewayOrderID, gatewayPaymentID, signature, c.keySecret)
}

func newReceipt() (string, error) {
	buf := make([]byte, 10)

	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate receipt: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
