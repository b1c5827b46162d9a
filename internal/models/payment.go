package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayOrder is the gateway-side order opened for an unpaid checkout. The
// client completes payment against it and the gateway calls back with a
// signed result.
type GatewayOrder struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

type CreateGatewayOrderRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// VerifyPaymentRequest is the gateway callback payload: the two gateway IDs
// plus the HMAC signature over them.
type VerifyPaymentRequest struct {
	OrderID          uuid.UUID `json:"order_id" validate:"required"`
	GatewayOrderID   string    `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string    `json:"gateway_payment_id" validate:"required"`
	GatewaySignature string    `json:"gateway_signature" validate:"required"`
}

type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
