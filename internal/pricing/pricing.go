// Package pricing computes checkout totals. ComputeTotals is the only place
// in the codebase that derives a total from line items; cart view, checkout
// and order summary all go through it so the numbers cannot drift apart.
package pricing

import (
	"fmt"

	"github.com/arnavkapoor/stitchkart-commerce/internal/config"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	"github.com/shopspring/decimal"
)

// Policy holds the pricing constants. Shipping is a flat fee, waived for an
// empty cart and for subtotals strictly above the free-shipping threshold.
type Policy struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// NewPolicy parses the configured pricing constants. Config values are kept
// as strings and parsed here so a malformed rate fails at startup, not at
// checkout.
func NewPolicy(cfg *config.Pricing) (Policy, error) {
	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid tax rate %q: %w", cfg.TaxRate, err)
	}

	shippingFee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid shipping fee %q: %w", cfg.ShippingFee, err)
	}

	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid free shipping threshold %q: %w", cfg.FreeShippingThreshold, err)
	}

	return Policy{
		TaxRate:               taxRate,
		ShippingFee:           shippingFee,
		FreeShippingThreshold: threshold,
	}, nil
}

type Totals struct {
	ItemsPrice    decimal.Decimal `json:"items_price"`
	TaxPrice      decimal.Decimal `json:"tax_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// ComputeTotals derives the price breakdown from the stored unit-price
// snapshots. It is a pure function: no clock, no catalog lookup, identical
// input yields identical output. Rounding happens once per component, to two
// places, half up.
func (p Policy) ComputeTotals(items []models.LineItem) Totals {
	itemsPrice := decimal.Zero

	for _, item := range items {
		itemsPrice = itemsPrice.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	itemsPrice = itemsPrice.Round(2)
	taxPrice := itemsPrice.Mul(p.TaxRate).Round(2)

	shippingPrice := decimal.Zero
	if itemsPrice.IsPositive() && !itemsPrice.GreaterThan(p.FreeShippingThreshold) {
		shippingPrice = p.ShippingFee.Round(2)
	}

	return Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    itemsPrice.Add(taxPrice).Add(shippingPrice).Round(2),
	}
}

// ComputeOrderTotals applies the same policy to frozen order items. Used only
// at order creation; a placed order keeps its stored breakdown forever.
func (p Policy) ComputeOrderTotals(items []models.OrderItem) Totals {
	lines := make([]models.LineItem, 0, len(items))

	for _, item := range items {
		lines = append(lines, models.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	return p.ComputeTotals(lines)
}
