package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	Sku         string    `json:"sku"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InternalProduct is the product view served to other services: identity,
// current price and stock level in one read.
type InternalProduct struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Currency *string          `json:"currency,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
}
