package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one cart line. UnitPrice is the catalog price frozen at the
// moment the line was first added; catalog changes never rewrite it.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

// Key identifies a distinct line: same product in a different size or color
// is a separate line.
func (li *LineItem) Key() LineKey {
	return LineKey{ProductID: li.ProductID, Size: li.Size, Color: li.Color}
}

type LineKey struct {
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// Cart is the durable per-user cart. Items keep insertion order for display;
// Version backs the optimistic write check on concurrent updates.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Items     []LineItem `json:"items"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FindItemIndex returns the index of the line matching key, or -1.
func (c *Cart) FindItemIndex(key LineKey) int {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}

	return -1
}

func (c *Cart) ItemCount() int {
	var count int

	for _, item := range c.Items {
		count += item.Quantity
	}

	return count
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Size      string    `json:"size,omitempty" validate:"max=20"`
	Color     string    `json:"color,omitempty" validate:"max=30"`
}

type UpdateQuantityRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size,omitempty" validate:"max=20"`
	Color     string    `json:"color,omitempty" validate:"max=30"`
	Quantity  int       `json:"quantity" validate:"required"`
}

type RemoveItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size,omitempty" validate:"max=20"`
	Color     string    `json:"color,omitempty" validate:"max=30"`
}

// GuestLineItem is a line carried over from an anonymous client-side cart.
// Its price snapshot is untrusted and gets re-read from the catalog on merge.
type GuestLineItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Size      string    `json:"size,omitempty" validate:"max=20"`
	Color     string    `json:"color,omitempty" validate:"max=30"`
}

type MergeCartRequest struct {
	Items []GuestLineItem `json:"items" validate:"dive"`
}
