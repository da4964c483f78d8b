package model

import (
	"time"

	"github.com/google/uuid"
)

type Inventory struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}
