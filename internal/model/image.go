package model

import (
	"time"

	"github.com/google/uuid"
)

type ProductImage struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Primary   bool      `json:"primary"`
	CreatedAt time.Time `json:"created_at"`
}
