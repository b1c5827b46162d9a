package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product is the catalog entry the cart treats as a read-only oracle for
// price and stock.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	CategoryID    uuid.UUID       `json:"category_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Sizes         pq.StringArray  `json:"sizes,omitempty"`
	Colors        pq.StringArray  `json:"colors,omitempty"`
	Image         string          `json:"image,omitempty"`
	SKU           string          `json:"sku"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateProductRequest struct {
	CategoryID    uuid.UUID `json:"category_id" validate:"required"`
	Name          string    `json:"name" validate:"required,min=3,max=200"`
	Description   string    `json:"description,omitempty"`
	Price         string    `json:"price" validate:"required"`
	StockQuantity int       `json:"stock_quantity" validate:"gte=0"`
	Sizes         []string  `json:"sizes,omitempty"`
	Colors        []string  `json:"colors,omitempty"`
	Image         string    `json:"image,omitempty"`
	SKU           string    `json:"sku" validate:"required,min=3,max=50"`
}

type UpdateProductRequest struct {
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Name          *string    `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string    `json:"description,omitempty"`
	Price         *string    `json:"price,omitempty"`
	StockQuantity *int       `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Sizes         *[]string  `json:"sizes,omitempty"`
	Colors        *[]string  `json:"colors,omitempty"`
	Image         *string    `json:"image,omitempty"`
	Status        *string    `json:"status,omitempty" validate:"omitempty,oneof=active inactive discontinued"`
}
