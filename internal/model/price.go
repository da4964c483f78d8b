package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Price is a single price observation of a product. The observation with the
// latest CreatedAt (then the highest Seq) is the product's current price.
type Price struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Seq       int64           `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}
