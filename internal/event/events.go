package event

import "github.com/shopspring/decimal"

const (
	TopicProductCreated   = "catalog.product.created"
	TopicProductDeleted   = "catalog.product.deleted"
	TopicPriceChanged     = "catalog.price.changed"
	TopicInventoryChanged = "catalog.inventory.changed"
	TopicCategoryChanged  = "catalog.category.changed"
)

type ProductCreatedEvent struct {
	ProductID   string           `json:"product_id"`
	Sku         string           `json:"sku"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	CategoryIDs []string         `json:"category_ids,omitempty"`
}

type ProductDeletedEvent struct {
	ProductID string `json:"product_id"`
	Sku       string `json:"sku"`
}

type PriceChangedEvent struct {
	ProductID string          `json:"product_id"`
	PriceID   string          `json:"price_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// InventoryReason tells which operation changed a stock level.
type InventoryReason string

const (
	InventoryReasonCreate  InventoryReason = "create"
	InventoryReasonReserve InventoryReason = "reserve"
	InventoryReasonRelease InventoryReason = "release"
	InventoryReasonSet     InventoryReason = "set"
)

type InventoryChangedEvent struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Delta     int             `json:"delta"`
	Reason    InventoryReason `json:"reason"`
}

// CategoryAction tells what happened to a category.
type CategoryAction string

const (
	CategoryActionCreated CategoryAction = "created"
	CategoryActionRenamed CategoryAction = "renamed"
	CategoryActionDeleted CategoryAction = "deleted"
)

type CategoryChangedEvent struct {
	CategoryID string         `json:"category_id"`
	Name       string         `json:"name"`
	Slug       string         `json:"slug"`
	Action     CategoryAction `json:"action"`
}
